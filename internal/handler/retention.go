package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mchalk/repset/internal/retention"
	"github.com/mchalk/repset/internal/store"
)

type RetentionHandler struct {
	orchestrator *retention.Orchestrator
	runStore     *store.RunStore
	logger       *slog.Logger
}

func NewRetentionHandler(orch *retention.Orchestrator, rs *store.RunStore, logger *slog.Logger) *RetentionHandler {
	return &RetentionHandler{orchestrator: orch, runStore: rs, logger: logger}
}

// TriggerRun handles POST /api/retention/run (admin only). It claims
// today's run slot first, so a manual trigger and the scheduler can never
// both process the same day.
func (h *RetentionHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	day := store.Day(time.Now().UTC())

	claimed, err := h.runStore.TryBegin(day)
	if err != nil {
		h.logger.Error("claim retention run", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to claim run"})
		return
	}
	if !claimed {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "run already executed today"})
		return
	}

	stats, err := h.orchestrator.Run(r.Context())
	if err != nil {
		h.logger.Error("retention run", "error", err)
	}
	if err := h.runStore.Finish(day, stats); err != nil {
		h.logger.Error("finish retention run", "error", err)
	}

	writeJSON(w, http.StatusOK, stats)
}

// LastRun handles GET /api/retention/last-run.
func (h *RetentionHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	stats, err := h.runStore.LastFinished()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get last run"})
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed runs"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
