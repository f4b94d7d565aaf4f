package handlers

import (
	"net/http"
	"time"

	"github.com/watzon/uiproof/internal/database"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	db      *database.DB
	version string
}

func NewHealthHandlers(db *database.DB, version string) *HealthHandlers {
	return &HealthHandlers{db: db, version: version}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

var startTime = time.Now()

func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "ok",
	}

	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	JSON(w, status, resp)
}
