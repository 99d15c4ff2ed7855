package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mchalk/repset/internal/store"
)

type PlanHandler struct {
	memberStore *store.MemberStore
	planStore   *store.PlanStore
	logger      *slog.Logger
}

func NewPlanHandler(ms *store.MemberStore, ps *store.PlanStore, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{memberStore: ms, planStore: ps, logger: logger}
}

type planRequest struct {
	Name            string  `json:"name"`
	DailyCalories   int     `json:"daily_calories"`
	WorkoutDays     string  `json:"workout_days"`
	ExercisesPerDay float64 `json:"exercises_per_day"`
}

// Create handles POST /api/members/{id}/plan. A new plan replaces the
// member's currently active one.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.DailyCalories < 0 || req.ExercisesPerDay < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "calories and exercises must be non-negative"})
		return
	}

	plan, err := h.planStore.Create(id, req.Name, req.DailyCalories, req.WorkoutDays, req.ExercisesPerDay)
	if err != nil {
		h.logger.Error("create plan", "member_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create plan"})
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

// GetActive handles GET /api/members/{id}/plan.
func (h *PlanHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	plan, err := h.planStore.GetActive(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active plan"})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
