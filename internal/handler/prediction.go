package handler

import (
	"log/slog"
	"net/http"

	"github.com/mchalk/repset/internal/retention"
	"github.com/mchalk/repset/internal/store"
	"github.com/mchalk/repset/internal/websocket"
)

type PredictionHandler struct {
	memberStore     *store.MemberStore
	predictionStore *store.PredictionStore
	orchestrator    *retention.Orchestrator
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewPredictionHandler(ms *store.MemberStore, ps *store.PredictionStore, orch *retention.Orchestrator, hub *websocket.Hub, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{memberStore: ms, predictionStore: ps, orchestrator: orch, hub: hub, logger: logger}
}

// Get returns the member's current prediction snapshot, 404 when no batch
// run or refresh has scored them yet.
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	pred, err := h.predictionStore.GetCurrent(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get prediction"})
		return
	}
	if pred == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no prediction for member"})
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// Refresh rescores the member on demand instead of waiting for the nightly
// batch. Campaign state is untouched; only the batch escalates campaigns.
func (h *PredictionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}

	pred, err := h.orchestrator.ProcessMember(r.Context(), member)
	if err != nil {
		h.logger.Error("refresh prediction", "member_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to refresh prediction"})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewEvent(websocket.KindPrediction, member.ID, map[string]any{
			"churn_risk":       pred.ChurnRisk,
			"churn_risk_level": string(pred.ChurnRiskLevel),
		}))
	}

	writeJSON(w, http.StatusOK, pred)
}
