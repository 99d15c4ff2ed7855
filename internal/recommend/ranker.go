package recommend

import (
	"sort"
	"time"

	"github.com/mchalk/repset/internal/model"
)

// Default result counts for the two call sites.
const (
	DefaultGeneralCount    = 10
	DefaultContextualCount = 12
)

// Scoring constants. Every bonus is fixed so a given catalog and context
// always rank identically.
const (
	curatedBonus = 10

	calorieTightBonus = 15 // ratio within [0.8, 1.2]
	calorieNearBonus  = 10 // ratio within [0.6, 1.4]
	calorieLooseBonus = 5  // ratio within [0.4, 1.6]

	proteinHighIntensityBonus = 12 // >20g protein during high intensity
	proteinGoodBonus          = 8  // >15g protein
	proteinOKBonus            = 5  // >10g protein

	workoutDayPreBonus     = 20
	workoutDayPostBonus    = 18
	workoutDayProteinBonus = 15
	workoutDayCarbBonus    = 10 // >30g carbs on a workout day
	restDayHealthyBonus    = 12
	restDayLightBonus      = 8 // below per-meal calorie target on a rest day

	difficultyMatchBonus = 8

	mealTypeMatchBonus      = 25
	breakfastQuickBonus     = 10 // cook time <= 15 in a breakfast context
	lunchDinnerMatchBonus   = 12
	preWorkoutCarbBonus     = 12 // >20g carbs in a pre-workout context
	postWorkoutProteinBonus = 15 // >15g protein in a post-workout context

	quickCookBonus    = 5 // cook time <= 15
	moderateCookBonus = 3 // cook time <= 30
	quickTagBonus     = 5 // "quick" tag during high intensity
	mealPrepTagBonus  = 8 // "meal-prep" tag with >3 workout days/week
)

// mealsPerDay divides the daily calorie target into per-meal portions.
const mealsPerDay = 4

// Context is everything about the member and the moment that influences
// ranking.
type Context struct {
	DailyCalorieTarget int
	WorkoutDays        map[time.Weekday]bool
	WorkoutDaysPerWeek int
	ExercisesPerDay    float64
	MembershipTier     string
	MealType           string // optional explicit filter; empty for general ranking
	Hour               int
	Weekday            time.Weekday
}

// HighIntensity reports whether the member's training signal counts as high
// intensity for protein prioritization.
func (c Context) HighIntensity() bool {
	return c.ExercisesPerDay > 8 || c.WorkoutDaysPerWeek > 4
}

// IsWorkoutDay reports whether the context weekday is a scheduled workout day.
func (c Context) IsWorkoutDay() bool {
	return c.WorkoutDays[c.Weekday]
}

// ScoredRecipe pairs a recipe with its additive ranking score.
type ScoredRecipe struct {
	model.Recipe
	Score int `json:"score"`
}

// Rank scores every recipe against the context and returns them sorted by
// descending score. The sort is stable, so equal scores keep catalog order.
// Rank is pure: it never mutates its inputs and has no hidden state.
func Rank(recipes []model.Recipe, ctx Context) []ScoredRecipe {
	scored := make([]ScoredRecipe, 0, len(recipes))
	for _, r := range recipes {
		scored = append(scored, ScoredRecipe{Recipe: r, Score: ScoreRecipe(r, ctx)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// ScoreRecipe computes the additive score for one recipe. Bonuses are
// order-independent; the total does not depend on evaluation sequence.
func ScoreRecipe(r model.Recipe, ctx Context) int {
	score := 0

	if r.Recommended {
		score += curatedBonus
	}

	score += calorieScore(r, ctx)
	score += proteinScore(r, ctx)
	score += dayTypeScore(r, ctx)
	score += difficultyScore(r, ctx)
	score += mealTypeScore(r, ctx)
	score += convenienceScore(r, ctx)

	return score
}

func perMealTarget(ctx Context) int {
	if ctx.DailyCalorieTarget <= 0 {
		return 0
	}
	return ctx.DailyCalorieTarget / mealsPerDay
}

func calorieScore(r model.Recipe, ctx Context) int {
	target := perMealTarget(ctx)
	if target == 0 || r.Calories <= 0 {
		return 0
	}
	ratio := float64(r.Calories) / float64(target)
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return calorieTightBonus
	case ratio >= 0.6 && ratio <= 1.4:
		return calorieNearBonus
	case ratio >= 0.4 && ratio <= 1.6:
		return calorieLooseBonus
	default:
		return 0
	}
}

func proteinScore(r model.Recipe, ctx Context) int {
	switch {
	case ctx.HighIntensity() && r.ProteinGrams > 20:
		return proteinHighIntensityBonus
	case r.ProteinGrams > 15:
		return proteinGoodBonus
	case r.ProteinGrams > 10:
		return proteinOKBonus
	default:
		return 0
	}
}

func dayTypeScore(r model.Recipe, ctx Context) int {
	score := 0
	if ctx.IsWorkoutDay() {
		switch r.Category {
		case model.CategoryPreWorkout:
			score += workoutDayPreBonus
		case model.CategoryPostWorkout:
			score += workoutDayPostBonus
		case model.CategoryProtein:
			score += workoutDayProteinBonus
		}
		if r.CarbsGrams > 30 {
			score += workoutDayCarbBonus
		}
		return score
	}

	if r.Category == model.CategoryHealthy {
		score += restDayHealthyBonus
	}
	if target := perMealTarget(ctx); target > 0 && r.Calories > 0 && r.Calories < target {
		score += restDayLightBonus
	}
	return score
}

func difficultyScore(r model.Recipe, ctx Context) int {
	if ctx.MembershipTier == model.TierPremium {
		if r.Difficulty == model.DifficultyMedium || r.Difficulty == model.DifficultyHard {
			return difficultyMatchBonus
		}
		return 0
	}
	if r.Difficulty == model.DifficultyEasy {
		return difficultyMatchBonus
	}
	return 0
}

func mealTypeScore(r model.Recipe, ctx Context) int {
	if ctx.MealType == "" {
		return 0
	}
	score := 0
	if r.Category == ctx.MealType {
		score += mealTypeMatchBonus
	}
	switch ctx.MealType {
	case model.CategoryBreakfast:
		if r.CookMinutes <= 15 {
			score += breakfastQuickBonus
		}
	case model.CategoryLunch, model.CategoryDinner:
		if r.Category == ctx.MealType {
			score += lunchDinnerMatchBonus
		}
	case model.CategoryPreWorkout:
		if r.CarbsGrams > 20 {
			score += preWorkoutCarbBonus
		}
	case model.CategoryPostWorkout:
		if r.ProteinGrams > 15 {
			score += postWorkoutProteinBonus
		}
	}
	return score
}

func convenienceScore(r model.Recipe, ctx Context) int {
	score := 0
	if r.CookMinutes > 0 {
		if r.CookMinutes <= 15 {
			score += quickCookBonus
		} else if r.CookMinutes <= 30 {
			score += moderateCookBonus
		}
	}
	if ctx.HighIntensity() && r.HasTag("quick") {
		score += quickTagBonus
	}
	if ctx.WorkoutDaysPerWeek > 3 && r.HasTag("meal-prep") {
		score += mealPrepTagBonus
	}
	return score
}
