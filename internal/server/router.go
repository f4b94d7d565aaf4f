package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watzon/uiproof/internal/server/handlers"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)

	if r.server.cfg.Server.CORS.Enabled {
		r.Use(CORSMiddleware(r.server.cfg.Server.CORS))
	}
	if r.server.cfg.Server.MaxBodySize > 0 {
		r.Use(MaxBodySizeMiddleware(r.server.cfg.Server.MaxBodySize))
	}
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	health := handlers.NewHealthHandlers(r.server.db, Version)
	r.mux.HandleFunc("GET /", health.Health)
	r.mux.HandleFunc("GET /health", health.Health)
	r.mux.Handle("GET /metrics", promhttp.Handler())

	caseHandlers := handlers.NewCaseHandlers(r.server.caseStore)
	r.mux.HandleFunc("POST /api/cases", caseHandlers.Create)
	r.mux.HandleFunc("GET /api/cases", caseHandlers.List)
	r.mux.HandleFunc("GET /api/cases/{id}", caseHandlers.Get)
	r.mux.HandleFunc("PUT /api/cases/{id}", caseHandlers.Update)
	r.mux.HandleFunc("DELETE /api/cases/{id}", caseHandlers.Delete)

	execHandlers := handlers.NewExecutionHandlers(r.server.orchestrator)
	r.mux.HandleFunc("POST /api/executions", execHandlers.Create)
	r.mux.HandleFunc("GET /api/executions", execHandlers.List)
	r.mux.HandleFunc("GET /api/executions/{id}", execHandlers.Get)
	r.mux.HandleFunc("POST /api/executions/{id}/start", execHandlers.Start)
	r.mux.HandleFunc("POST /api/executions/{id}/stop", execHandlers.Stop)
	r.mux.HandleFunc("GET /api/executions/{id}/outcomes", execHandlers.Outcomes)

	watch := handlers.NewWatchHandler(r.server.orchestrator)
	r.mux.HandleFunc("GET /api/executions/{id}/watch", watch.Watch)

	reportHandlers := handlers.NewReportHandlers(r.server.reports)
	r.mux.HandleFunc("POST /api/executions/{id}/report", reportHandlers.Generate)
	r.mux.HandleFunc("GET /api/reports", reportHandlers.List)
	r.mux.HandleFunc("GET /api/reports/{name}", reportHandlers.Download)

	scheduleHandlers := handlers.NewScheduleHandlers(r.server.schedules)
	r.mux.HandleFunc("POST /api/schedules", scheduleHandlers.Create)
	r.mux.HandleFunc("GET /api/schedules", scheduleHandlers.List)
	r.mux.HandleFunc("GET /api/schedules/{id}", scheduleHandlers.Get)
	r.mux.HandleFunc("PATCH /api/schedules/{id}/enabled", scheduleHandlers.SetEnabled)
	r.mux.HandleFunc("DELETE /api/schedules/{id}", scheduleHandlers.Delete)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}
