package executions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/browser"
	"github.com/watzon/uiproof/internal/cases"
	"github.com/watzon/uiproof/internal/config"
	"github.com/watzon/uiproof/internal/metrics"
	"github.com/watzon/uiproof/internal/runner"
)

// ErrNoCases indicates no test cases exist to resolve an implicit target set.
var ErrNoCases = errors.New("no test cases available")

// ErrAlreadyStarted indicates start was called on a non-pending execution.
var ErrAlreadyStarted = errors.New("execution already started")

// engines maps the externally-facing browser names to driver engine names.
// A fixed table rather than a pass-through so new names are a deliberate
// decision.
var engines = map[string]browser.Engine{
	"chrome":   browser.EngineChromium,
	"chromium": browser.EngineChromium,
	"firefox":  browser.EngineFirefox,
	"edge":     browser.EngineWebKit,
	"webkit":   browser.EngineWebKit,
}

// Orchestrator drives the execution lifecycle: creating execution records,
// launching background jobs, and stopping them by closing their sessions.
type Orchestrator struct {
	store    *Store
	cases    *cases.Store
	factory  browser.Factory
	cfg      *config.Config
	registry *registry
}

// NewOrchestrator creates an orchestrator. The session factory lets tests
// inject fake sessions instead of launching real browsers.
func NewOrchestrator(store *Store, caseStore *cases.Store, factory browser.Factory, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:    store,
		cases:    caseStore,
		factory:  factory,
		cfg:      cfg,
		registry: newRegistry(),
	}
}

// Create resolves the target case set and persists a pending execution.
// No browser session is created yet.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (*Execution, error) {
	if req.Mode == "" {
		req.Mode = ModeSingle
	}
	if req.Mode != ModeSingle && req.Mode != ModeBatch {
		return nil, fmt.Errorf("invalid mode: %s", req.Mode)
	}
	if req.Browser == "" {
		req.Browser = "chrome"
	}
	if _, ok := engines[req.Browser]; !ok {
		return nil, fmt.Errorf("unsupported browser: %s", req.Browser)
	}
	if req.WindowSize == "" {
		req.WindowSize = o.cfg.Browser.WindowSize
	}

	headless := o.cfg.Browser.Headless
	if req.Headless != nil {
		headless = *req.Headless
	}

	ids := req.CaseIDs
	if len(ids) == 0 {
		switch req.Mode {
		case ModeSingle:
			first, err := o.cases.FirstID(ctx)
			if err != nil {
				return nil, err
			}
			if first != "" {
				ids = []string{first}
			}
		case ModeBatch:
			all, err := o.cases.AllIDs(ctx)
			if err != nil {
				return nil, err
			}
			ids = all
		}
		if len(ids) == 0 {
			return nil, ErrNoCases
		}
	}

	e := &Execution{
		Mode:       req.Mode,
		Browser:    req.Browser,
		Headless:   headless,
		WindowSize: req.WindowSize,
		CaseIDs:    ids,
		Status:     StatusPending,
		TotalCount: len(ids),
	}
	if err := o.store.Create(ctx, e); err != nil {
		return nil, err
	}

	log.Info().
		Str("execution_id", e.ID).
		Str("mode", string(e.Mode)).
		Str("browser", e.Browser).
		Int("total_count", e.TotalCount).
		Msg("execution created")

	return e, nil
}

// Start snapshots the target cases, marks the execution running and launches
// the background job. It returns as soon as the running state is durable;
// the job itself runs detached.
func (o *Orchestrator) Start(ctx context.Context, id string) (*Execution, error) {
	e, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, id, e.Status)
	}

	// Snapshot now so edits to the cases cannot affect this run.
	snapshots, err := o.cases.LoadSnapshots(ctx, e.CaseIDs)
	if err != nil {
		return nil, fmt.Errorf("loading case snapshots: %w", err)
	}

	session := o.factory(browser.Options{
		Profile: browser.Profile{
			Engine:   engines[e.Browser],
			Headless: e.Headless,
			Viewport: config.ParseWindowSize(e.WindowSize),
		},
		StepTimeout:       o.cfg.Browser.StepTimeout,
		NavigationTimeout: o.cfg.Browser.NavigationTimeout,
		ScreenshotsDir:    o.cfg.Artifacts.ScreenshotsDir,
	})

	now := time.Now().UTC()
	if err := o.store.MarkRunning(ctx, id, now); err != nil {
		return nil, err
	}
	e.Status = StatusRunning
	e.StartTime = &now

	ent := o.registry.add(id, session)
	metrics.ExecutionsRunning.Inc()
	go o.run(id, session, snapshots, ent)

	log.Info().
		Str("execution_id", id).
		Str("engine", string(engines[e.Browser])).
		Int("cases", len(snapshots)).
		Msg("execution started")

	return e, nil
}

// run is the background job body. Teardown is unconditional: whatever
// happens inside the loop, the session is closed and the registry entry
// removed exactly once.
func (o *Orchestrator) run(id string, session browser.Session, snapshots []*cases.TestCase, ent *entry) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("execution_id", id).
				Interface("panic", r).
				Msg("execution job panicked")
			if err := o.store.Finish(ctx, id, StatusFailed, time.Now().UTC()); err != nil {
				log.Error().Err(err).Str("execution_id", id).Msg("failed to mark execution failed")
			}
		}
		session.Close()
		o.registry.remove(id)
		close(ent.done)
		metrics.ExecutionsRunning.Dec()
	}()

	if err := session.Start(); err != nil {
		log.Error().Err(err).Str("execution_id", id).Msg("browser session failed to start")
		if err := o.store.Finish(ctx, id, StatusFailed, time.Now().UTC()); err != nil {
			log.Error().Err(err).Str("execution_id", id).Msg("failed to mark execution failed")
		}
		return
	}

	exec := runner.NewExecutor(session, o.cfg.Browser.StepTimeout)

	failed := 0
	for i, snapshot := range snapshots {
		outcome := &CaseOutcome{
			ExecutionID: id,
			CaseID:      snapshot.ID,
			CaseName:    snapshot.Name,
			CaseOrder:   i + 1,
			Status:      OutcomeRunning,
			StartTime:   time.Now().UTC(),
		}
		if err := o.store.CreateOutcome(ctx, outcome); err != nil {
			log.Error().Err(err).Str("execution_id", id).Str("case_id", snapshot.ID).
				Msg("failed to create case outcome")
			if err := o.store.Finish(ctx, id, StatusFailed, time.Now().UTC()); err != nil {
				log.Error().Err(err).Str("execution_id", id).Msg("failed to mark execution failed")
			}
			return
		}

		result := exec.RunCase(snapshot)

		outcome.Status = OutcomeSuccess
		if !result.Success {
			outcome.Status = OutcomeFailed
			outcome.ErrorMessage = result.Message
			outcome.ErrorDetail = result.Error
		}
		outcome.ScreenshotPath = result.Screenshot
		outcome.StepLogs = result.StepLogJSON()
		outcome.EndTime = &result.EndTime
		outcome.DurationMs = &result.DurationMs
		outcome.StartTime = result.StartTime

		if err := o.store.UpdateOutcome(ctx, outcome); err != nil {
			log.Error().Err(err).Str("execution_id", id).Str("case_id", snapshot.ID).
				Msg("failed to persist case outcome")
		}

		// Counters move after each case so pollers only ever see whole-case
		// increments.
		successDelta, failDelta := 1, 0
		if !result.Success {
			successDelta, failDelta = 0, 1
			failed++
		}
		if err := o.store.IncrementCounters(ctx, id, successDelta, failDelta); err != nil {
			log.Error().Err(err).Str("execution_id", id).Msg("failed to update counters")
		}
		metrics.CasesRun.WithLabelValues(outcome.Status).Inc()
	}

	status := StatusCompleted
	if failed > 0 {
		status = StatusFailed
	}
	if err := o.store.Finish(ctx, id, status, time.Now().UTC()); err != nil {
		log.Error().Err(err).Str("execution_id", id).Msg("failed to finish execution")
	}
	metrics.ExecutionsFinished.WithLabelValues(string(status)).Inc()

	log.Info().
		Str("execution_id", id).
		Str("status", string(status)).
		Int("cases", len(snapshots)).
		Int("failed", failed).
		Msg("execution finished")
}

// Stop force-fails an execution. If its session is still registered it is
// closed, which makes any in-flight step fail and unwinds the job. Stopping
// an execution that already finished still flips it to failed.
func (o *Orchestrator) Stop(ctx context.Context, id string) error {
	if _, err := o.store.Get(ctx, id); err != nil {
		return err
	}

	if session := o.registry.session(id); session != nil {
		session.Close()
	}

	if err := o.store.Finish(ctx, id, StatusFailed, time.Now().UTC()); err != nil {
		return err
	}
	o.registry.remove(id)

	log.Info().Str("execution_id", id).Msg("execution stopped")
	return nil
}

// Get returns an execution by ID.
func (o *Orchestrator) Get(ctx context.Context, id string) (*Execution, error) {
	return o.store.Get(ctx, id)
}

// List returns executions matching the filters, newest first.
func (o *Orchestrator) List(ctx context.Context, filters map[string]any, limit, offset int) ([]*Execution, error) {
	return o.store.List(ctx, filters, limit, offset)
}

// ListCaseOutcomes returns the case outcomes of an execution in run order.
func (o *Orchestrator) ListCaseOutcomes(ctx context.Context, id string) ([]*CaseOutcome, error) {
	if _, err := o.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return o.store.ListOutcomes(ctx, id)
}

// GetRunningSession returns the live session for an execution, or nil when
// none is registered. Observational only.
func (o *Orchestrator) GetRunningSession(id string) browser.Session {
	return o.registry.session(id)
}

// Wait returns a channel closed when the execution's background job exits.
// Executions with no live job get an already-closed channel.
func (o *Orchestrator) Wait(id string) <-chan struct{} {
	return o.registry.wait(id)
}
