// Package server wires the HTTP API together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/browser"
	"github.com/watzon/uiproof/internal/cases"
	"github.com/watzon/uiproof/internal/config"
	"github.com/watzon/uiproof/internal/database"
	"github.com/watzon/uiproof/internal/executions"
	"github.com/watzon/uiproof/internal/reports"
	"github.com/watzon/uiproof/internal/scheduler"
)

// Version is stamped at build time.
var Version = "dev"

type Server struct {
	cfg          *config.Config
	db           *database.DB
	caseStore    *cases.Store
	orchestrator *executions.Orchestrator
	reports      *reports.Service
	schedules    *scheduler.Store
	scheduler    *scheduler.Scheduler
	httpServer   *http.Server
	router       *Router
}

// New builds a server and all its services on top of an open database.
func New(cfg *config.Config, db *database.DB) (*Server, error) {
	caseStore := cases.NewStore(db)
	execStore := executions.NewStore(db)
	orchestrator := executions.NewOrchestrator(execStore, caseStore, browser.NewSession, cfg)

	reportService, err := reports.NewService(execStore, cfg.Artifacts.ReportsDir)
	if err != nil {
		return nil, fmt.Errorf("creating report service: %w", err)
	}

	scheduleStore := scheduler.NewStore(db)

	srv := &Server{
		cfg:          cfg,
		db:           db,
		caseStore:    caseStore,
		orchestrator: orchestrator,
		reports:      reportService,
		schedules:    scheduleStore,
	}

	if cfg.Scheduler.Enabled {
		srv.scheduler = scheduler.New(scheduleStore, orchestrator)
	}

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv, nil
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start(ctx context.Context) error {
	log.Info().
		Str("addr", s.cfg.Server.Address()).
		Str("version", Version).
		Msg("Starting server")

	if s.scheduler != nil {
		s.scheduler.Start(s.cfg.Scheduler.PollInterval)
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the scheduler and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) DB() *database.DB {
	return s.db
}

func (s *Server) Config() *config.Config {
	return s.cfg
}

func (s *Server) Orchestrator() *executions.Orchestrator {
	return s.orchestrator
}
