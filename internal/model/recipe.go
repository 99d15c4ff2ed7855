package model

import (
	"strings"
	"time"
)

// Recipe categories used by the recommendation ranker.
const (
	CategoryBreakfast   = "breakfast"
	CategoryLunch       = "lunch"
	CategoryDinner      = "dinner"
	CategoryPreWorkout  = "pre-workout"
	CategoryPostWorkout = "post-workout"
	CategoryProtein     = "protein"
	CategoryHealthy     = "healthy"
)

// Recipe difficulty values.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Recipe struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty"`
	Calories     int       `json:"calories"`
	ProteinGrams int       `json:"protein_grams"`
	CarbsGrams   int       `json:"carbs_grams"`
	FatGrams     int       `json:"fat_grams"`
	CookMinutes  int       `json:"cook_minutes"`
	Tags         string    `json:"tags"` // comma-separated
	Recommended  bool      `json:"recommended"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasTag reports whether the recipe carries the given tag.
func (r *Recipe) HasTag(tag string) bool {
	for _, t := range strings.Split(r.Tags, ",") {
		if strings.TrimSpace(t) == tag {
			return true
		}
	}
	return false
}
