package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mchalk/repset/internal/recommend"
	"github.com/mchalk/repset/internal/store"
)

type RecommendationHandler struct {
	memberStore *store.MemberStore
	planStore   *store.PlanStore
	recipeStore *store.RecipeStore
	logger      *slog.Logger
}

func NewRecommendationHandler(ms *store.MemberStore, ps *store.PlanStore, rs *store.RecipeStore, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{memberStore: ms, planStore: ps, recipeStore: rs, logger: logger}
}

// Get handles GET /api/members/{id}/recommendations. Query params:
// meal_type filters to one recipe slot, count caps the result size.
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	recipes, err := h.recipeStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list recipes"})
		return
	}

	mealType := r.URL.Query().Get("meal_type")

	now := time.Now()
	rctx := recommend.Context{
		MembershipTier: member.MembershipTier,
		MealType:       mealType,
		Hour:           now.Hour(),
		Weekday:        now.Weekday(),
	}

	// A plan adds calorie and workout-day context; without one the ranking
	// falls back to tier and time of day.
	plan, err := h.planStore.GetActive(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return
	}
	if plan != nil {
		rctx.DailyCalorieTarget = plan.DailyCalories
		rctx.WorkoutDays = plan.WorkoutWeekdays()
		rctx.WorkoutDaysPerWeek = plan.WorkoutDaysPerWeek()
		rctx.ExercisesPerDay = plan.ExercisesPerDay
	}

	count := recommend.DefaultGeneralCount
	if mealType != "" {
		count = recommend.DefaultContextualCount
	}
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid count"})
			return
		}
		count = n
	}

	ranked := recommend.Rank(recipes, rctx)
	if len(ranked) > count {
		ranked = ranked[:count]
	}

	writeJSON(w, http.StatusOK, ranked)
}
