package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/watzon/uiproof/internal/scheduler"
)

// ScheduleHandlers serves the schedule CRUD endpoints.
type ScheduleHandlers struct {
	store *scheduler.Store
}

func NewScheduleHandlers(store *scheduler.Store) *ScheduleHandlers {
	return &ScheduleHandlers{store: store}
}

type scheduleRequest struct {
	Name       string   `json:"name"`
	Expression string   `json:"expression"`
	Mode       string   `json:"mode"`
	CaseIDs    []string `json:"case_ids"`
	Enabled    *bool    `json:"enabled"`
}

func (h *ScheduleHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Expression == "" {
		BadRequest(w, "name and expression are required")
		return
	}

	sc := &scheduler.Schedule{
		Name:       req.Name,
		Expression: req.Expression,
		Mode:       req.Mode,
		CaseIDs:    req.CaseIDs,
		Enabled:    true,
	}
	if req.Enabled != nil {
		sc.Enabled = *req.Enabled
	}

	if err := h.store.Create(r.Context(), sc); err != nil {
		BadRequest(w, err.Error())
		return
	}

	JSON(w, http.StatusCreated, sc)
}

func (h *ScheduleHandlers) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		InternalError(w, "failed to list schedules")
		return
	}
	if list == nil {
		list = []*scheduler.Schedule{}
	}
	JSON(w, http.StatusOK, list)
}

func (h *ScheduleHandlers) Get(w http.ResponseWriter, r *http.Request) {
	sc, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			NotFound(w, "schedule not found")
			return
		}
		InternalError(w, "failed to load schedule")
		return
	}
	JSON(w, http.StatusOK, sc)
}

func (h *ScheduleHandlers) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.store.SetEnabled(r.Context(), r.PathValue("id"), req.Enabled); err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			NotFound(w, "schedule not found")
			return
		}
		InternalError(w, "failed to update schedule")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func (h *ScheduleHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			NotFound(w, "schedule not found")
			return
		}
		InternalError(w, "failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
