package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/store"
)

type RecipeHandler struct {
	recipeStore *store.RecipeStore
	logger      *slog.Logger
}

func NewRecipeHandler(rs *store.RecipeStore, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipeStore: rs, logger: logger}
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list recipes"})
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	recipe, err := h.recipeStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get recipe"})
		return
	}
	if recipe == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

var validCategories = map[string]bool{
	model.CategoryBreakfast:   true,
	model.CategoryLunch:       true,
	model.CategoryDinner:      true,
	model.CategoryPreWorkout:  true,
	model.CategoryPostWorkout: true,
	model.CategoryProtein:     true,
	model.CategoryHealthy:     true,
}

// Create handles POST /api/recipes (admin only).
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Recipe
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !validCategories[req.Category] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyEasy
	}

	recipe, err := h.recipeStore.Create(req)
	if err != nil {
		h.logger.Error("create recipe", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create recipe"})
		return
	}

	writeJSON(w, http.StatusCreated, recipe)
}
