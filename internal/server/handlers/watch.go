package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/executions"
)

// WatchHandler streams execution progress over WebSocket.
type WatchHandler struct {
	orchestrator *executions.Orchestrator
	pollInterval time.Duration
}

func NewWatchHandler(orchestrator *executions.Orchestrator) *WatchHandler {
	return &WatchHandler{orchestrator: orchestrator, pollInterval: 500 * time.Millisecond}
}

type watchUpdate struct {
	Execution executionView             `json:"execution"`
	Outcomes  []*executions.CaseOutcome `json:"outcomes"`
}

// Watch upgrades to WebSocket and pushes the execution state until it
// reaches a terminal status or the client goes away.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.orchestrator.Get(r.Context(), id); err != nil {
		if errors.Is(err, executions.ErrNotFound) {
			NotFound(w, "execution not found")
			return
		}
		InternalError(w, "failed to load execution")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to accept WebSocket connection")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		e, err := h.orchestrator.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("execution_id", id).Msg("watch lost its execution")
			return
		}

		outcomes, err := h.orchestrator.ListCaseOutcomes(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("execution_id", id).Msg("watch failed to list outcomes")
			return
		}
		if outcomes == nil {
			outcomes = []*executions.CaseOutcome{}
		}

		if err := wsjson.Write(ctx, conn, watchUpdate{Execution: viewOf(e), Outcomes: outcomes}); err != nil {
			return
		}

		if e.Status == executions.StatusCompleted || e.Status == executions.StatusFailed {
			conn.Close(websocket.StatusNormalClosure, "execution finished")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
