package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/watzon/uiproof/internal/cases"
)

// CaseHandlers serves the test case CRUD endpoints.
type CaseHandlers struct {
	store *cases.Store
}

func NewCaseHandlers(store *cases.Store) *CaseHandlers {
	return &CaseHandlers{store: store}
}

type caseRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	Tags        string      `json:"tags"`
	Steps       []stepInput `json:"steps"`
}

type stepInput struct {
	Order       int    `json:"step_order"`
	ActionType  string `json:"action_type"`
	LocatorType string `json:"locator_type"`
	Locator     string `json:"element_locator"`
	Params      any    `json:"action_params"`
	Expected    string `json:"expected_result"`
	Description string `json:"description"`
}

func (in *caseRequest) toCase() (*cases.TestCase, error) {
	tc := &cases.TestCase{
		Name:        in.Name,
		Description: in.Description,
		Priority:    in.Priority,
		Tags:        in.Tags,
	}

	for i, s := range in.Steps {
		if s.ActionType == "" {
			return nil, errors.New("step action_type is required")
		}

		params := ""
		switch v := s.Params.(type) {
		case nil:
		case string:
			params = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			params = string(raw)
		}

		order := s.Order
		if order == 0 {
			order = i + 1
		}

		tc.Steps = append(tc.Steps, cases.TestStep{
			Order:          order,
			ActionType:     s.ActionType,
			LocatorType:    s.LocatorType,
			Locator:        s.Locator,
			Params:         params,
			ExpectedResult: s.Expected,
			Description:    s.Description,
		})
	}

	return tc, nil
}

func (h *CaseHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	tc, err := req.toCase()
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.store.Create(r.Context(), tc); err != nil {
		InternalError(w, "failed to create test case")
		return
	}

	JSON(w, http.StatusCreated, tc)
}

func (h *CaseHandlers) Get(w http.ResponseWriter, r *http.Request) {
	tc, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, cases.ErrNotFound) {
			NotFound(w, "test case not found")
			return
		}
		InternalError(w, "failed to load test case")
		return
	}
	JSON(w, http.StatusOK, tc)
}

func (h *CaseHandlers) List(w http.ResponseWriter, r *http.Request) {
	filters := map[string]any{
		"priority": r.URL.Query().Get("priority"),
		"tag":      r.URL.Query().Get("tag"),
	}
	limit, offset := pagination(r)

	list, err := h.store.List(r.Context(), filters, limit, offset)
	if err != nil {
		InternalError(w, "failed to list test cases")
		return
	}
	if list == nil {
		list = []*cases.TestCase{}
	}
	JSON(w, http.StatusOK, list)
}

func (h *CaseHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	tc, err := req.toCase()
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	tc.ID = r.PathValue("id")

	if err := h.store.Update(r.Context(), tc); err != nil {
		if errors.Is(err, cases.ErrNotFound) {
			NotFound(w, "test case not found")
			return
		}
		InternalError(w, "failed to update test case")
		return
	}

	JSON(w, http.StatusOK, tc)
}

func (h *CaseHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, cases.ErrNotFound) {
			NotFound(w, "test case not found")
			return
		}
		InternalError(w, "failed to delete test case")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
