package handlers

import (
	"errors"
	"net/http"

	"github.com/watzon/uiproof/internal/executions"
	"github.com/watzon/uiproof/internal/reports"
)

// ReportHandlers serves HTML report generation and download.
type ReportHandlers struct {
	service *reports.Service
}

func NewReportHandlers(service *reports.Service) *ReportHandlers {
	return &ReportHandlers{service: service}
}

func (h *ReportHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	name, err := h.service.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, executions.ErrNotFound) {
			NotFound(w, "execution not found")
			return
		}
		InternalError(w, "failed to generate report")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"report": name})
}

func (h *ReportHandlers) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.List()
	if err != nil {
		InternalError(w, "failed to list reports")
		return
	}
	if names == nil {
		names = []string{}
	}
	JSON(w, http.StatusOK, names)
}

func (h *ReportHandlers) Download(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.Path(r.PathValue("name"))
	if err != nil {
		NotFound(w, "report not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}
