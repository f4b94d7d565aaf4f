package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/watzon/uiproof/internal/executions"
)

// ExecutionHandlers serves the execution lifecycle endpoints.
type ExecutionHandlers struct {
	orchestrator *executions.Orchestrator
}

func NewExecutionHandlers(orchestrator *executions.Orchestrator) *ExecutionHandlers {
	return &ExecutionHandlers{orchestrator: orchestrator}
}

// executionView augments the stored row with derived fields.
type executionView struct {
	*executions.Execution
	PassRate   float64 `json:"pass_rate"`
	DurationMs *int64  `json:"duration_ms,omitempty"`
}

func viewOf(e *executions.Execution) executionView {
	return executionView{
		Execution:  e,
		PassRate:   e.PassRate(),
		DurationMs: e.DurationMs(),
	}
}

func (h *ExecutionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req executions.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	e, err := h.orchestrator.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, executions.ErrNoCases) {
			BadRequest(w, "no test cases available")
			return
		}
		BadRequest(w, err.Error())
		return
	}

	JSON(w, http.StatusCreated, viewOf(e))
}

func (h *ExecutionHandlers) Start(w http.ResponseWriter, r *http.Request) {
	e, err := h.orchestrator.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, executions.ErrNotFound):
			NotFound(w, "execution not found")
		case errors.Is(err, executions.ErrAlreadyStarted):
			Conflict(w, err.Error())
		default:
			InternalError(w, "failed to start execution")
		}
		return
	}

	JSON(w, http.StatusOK, viewOf(e))
}

func (h *ExecutionHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.Stop(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, executions.ErrNotFound) {
			NotFound(w, "execution not found")
			return
		}
		InternalError(w, "failed to stop execution")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (h *ExecutionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.orchestrator.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, executions.ErrNotFound) {
			NotFound(w, "execution not found")
			return
		}
		InternalError(w, "failed to load execution")
		return
	}
	JSON(w, http.StatusOK, viewOf(e))
}

func (h *ExecutionHandlers) List(w http.ResponseWriter, r *http.Request) {
	filters := map[string]any{
		"status":  r.URL.Query().Get("status"),
		"browser": r.URL.Query().Get("browser"),
	}
	limit, offset := pagination(r)

	list, err := h.orchestrator.List(r.Context(), filters, limit, offset)
	if err != nil {
		InternalError(w, "failed to list executions")
		return
	}

	views := make([]executionView, 0, len(list))
	for _, e := range list {
		views = append(views, viewOf(e))
	}
	JSON(w, http.StatusOK, views)
}

func (h *ExecutionHandlers) Outcomes(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.orchestrator.ListCaseOutcomes(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, executions.ErrNotFound) {
			NotFound(w, "execution not found")
			return
		}
		InternalError(w, "failed to list case outcomes")
		return
	}
	if outcomes == nil {
		outcomes = []*executions.CaseOutcome{}
	}
	JSON(w, http.StatusOK, outcomes)
}
