package recommend

import (
	"testing"
	"time"

	"github.com/mchalk/repset/internal/model"
)

func baseContext() Context {
	return Context{
		DailyCalorieTarget: 2000,
		WorkoutDays:        map[time.Weekday]bool{time.Monday: true, time.Wednesday: true, time.Friday: true},
		WorkoutDaysPerWeek: 3,
		ExercisesPerDay:    5,
		MembershipTier:     model.TierBasic,
		Hour:               12,
		Weekday:            time.Tuesday, // rest day
	}
}

func TestCuratedPreWorkoutOnWorkoutDay(t *testing.T) {
	// Calories exactly at daily-target/4, curated, pre-workout category on
	// a workout day: 10 + 15 + 20, plus easy difficulty 8 and carbs 44 > 30
	// adds 10.
	ctx := baseContext()
	ctx.Weekday = time.Monday

	r := model.Recipe{
		Name:        "Energy Bites",
		Category:    model.CategoryPreWorkout,
		Difficulty:  model.DifficultyEasy,
		Calories:    500,
		CarbsGrams:  44,
		CookMinutes: 0,
		Recommended: true,
	}

	want := 10 + 15 + 20 + 10 + 8
	if got := ScoreRecipe(r, ctx); got != want {
		t.Errorf("ScoreRecipe = %d, want %d", got, want)
	}
}

func TestCalorieRatioBands(t *testing.T) {
	ctx := baseContext() // per-meal target 500
	cases := []struct {
		calories, want int
	}{
		{500, calorieTightBonus},
		{405, calorieTightBonus},
		{595, calorieTightBonus},
		{350, calorieNearBonus},
		{680, calorieNearBonus},
		{210, calorieLooseBonus},
		{790, calorieLooseBonus},
		{150, 0},
		{900, 0},
	}
	for _, tc := range cases {
		r := model.Recipe{Calories: tc.calories}
		if got := calorieScore(r, ctx); got != tc.want {
			t.Errorf("calorieScore(%d cal) = %d, want %d", tc.calories, got, tc.want)
		}
	}
}

func TestProteinPriorityHighIntensity(t *testing.T) {
	ctx := baseContext()
	ctx.ExercisesPerDay = 10 // high intensity

	cases := []struct {
		protein, want int
	}{
		{25, proteinHighIntensityBonus},
		{18, proteinGoodBonus},
		{12, proteinOKBonus},
		{8, 0},
	}
	for _, tc := range cases {
		r := model.Recipe{ProteinGrams: tc.protein}
		if got := proteinScore(r, ctx); got != tc.want {
			t.Errorf("proteinScore(%dg) = %d, want %d", tc.protein, got, tc.want)
		}
	}

	// Without the intensity signal 25g falls into the >15g band.
	ctx.ExercisesPerDay = 3
	r := model.Recipe{ProteinGrams: 25}
	if got := proteinScore(r, ctx); got != proteinGoodBonus {
		t.Errorf("proteinScore(25g, normal) = %d, want %d", got, proteinGoodBonus)
	}
}

func TestRestDayBonuses(t *testing.T) {
	ctx := baseContext() // Tuesday, rest day, per-meal target 500

	healthy := model.Recipe{Category: model.CategoryHealthy, Calories: 300}
	if got := dayTypeScore(healthy, ctx); got != restDayHealthyBonus+restDayLightBonus {
		t.Errorf("dayTypeScore(healthy, light) = %d, want %d", got, restDayHealthyBonus+restDayLightBonus)
	}

	heavy := model.Recipe{Category: model.CategoryDinner, Calories: 700}
	if got := dayTypeScore(heavy, ctx); got != 0 {
		t.Errorf("dayTypeScore(heavy dinner, rest day) = %d, want 0", got)
	}
}

func TestMembershipDifficultyPreference(t *testing.T) {
	ctx := baseContext()

	easy := model.Recipe{Difficulty: model.DifficultyEasy}
	hard := model.Recipe{Difficulty: model.DifficultyHard}

	if got := difficultyScore(easy, ctx); got != difficultyMatchBonus {
		t.Errorf("basic tier easy = %d, want %d", got, difficultyMatchBonus)
	}
	if got := difficultyScore(hard, ctx); got != 0 {
		t.Errorf("basic tier hard = %d, want 0", got)
	}

	ctx.MembershipTier = model.TierPremium
	if got := difficultyScore(hard, ctx); got != difficultyMatchBonus {
		t.Errorf("premium tier hard = %d, want %d", got, difficultyMatchBonus)
	}
	if got := difficultyScore(easy, ctx); got != 0 {
		t.Errorf("premium tier easy = %d, want 0", got)
	}
}

func TestMealTypeFilter(t *testing.T) {
	ctx := baseContext()
	ctx.MealType = model.CategoryPostWorkout

	shake := model.Recipe{Category: model.CategoryPostWorkout, ProteinGrams: 30}
	if got := mealTypeScore(shake, ctx); got != mealTypeMatchBonus+postWorkoutProteinBonus {
		t.Errorf("post-workout match = %d, want %d", got, mealTypeMatchBonus+postWorkoutProteinBonus)
	}

	oats := model.Recipe{Category: model.CategoryBreakfast, ProteinGrams: 30}
	if got := mealTypeScore(oats, ctx); got != postWorkoutProteinBonus {
		t.Errorf("non-matching category = %d, want %d", got, postWorkoutProteinBonus)
	}

	ctx.MealType = ""
	if got := mealTypeScore(shake, ctx); got != 0 {
		t.Errorf("no filter = %d, want 0", got)
	}
}

func TestConvenienceBonuses(t *testing.T) {
	ctx := baseContext()
	ctx.WorkoutDaysPerWeek = 4
	ctx.ExercisesPerDay = 9

	r := model.Recipe{CookMinutes: 10, Tags: "quick,meal-prep"}
	want := quickCookBonus + quickTagBonus + mealPrepTagBonus
	if got := convenienceScore(r, ctx); got != want {
		t.Errorf("convenienceScore = %d, want %d", got, want)
	}

	slow := model.Recipe{CookMinutes: 25}
	if got := convenienceScore(slow, baseContext()); got != moderateCookBonus {
		t.Errorf("convenienceScore(25min) = %d, want %d", got, moderateCookBonus)
	}
}

func TestRankOrderIndependent(t *testing.T) {
	ctx := baseContext()
	recipes := []model.Recipe{
		{ID: 1, Name: "A", Category: model.CategoryHealthy, Calories: 480, ProteinGrams: 18, CookMinutes: 10},
		{ID: 2, Name: "B", Category: model.CategoryDinner, Calories: 900, CookMinutes: 60},
		{ID: 3, Name: "C", Category: model.CategoryLunch, Calories: 520, ProteinGrams: 25, Recommended: true},
	}
	reversed := []model.Recipe{recipes[2], recipes[1], recipes[0]}

	forward := Rank(recipes, ctx)
	backward := Rank(reversed, ctx)

	byID := make(map[int64]int)
	for _, s := range forward {
		byID[s.ID] = s.Score
	}
	for _, s := range backward {
		if byID[s.ID] != s.Score {
			t.Errorf("recipe %d scored %d forward, %d reversed", s.ID, byID[s.ID], s.Score)
		}
	}
}

func TestRankStableSort(t *testing.T) {
	ctx := Context{} // everything scores 0
	recipes := []model.Recipe{{ID: 1}, {ID: 2}, {ID: 3}}
	ranked := Rank(recipes, ctx)
	for i, want := range []int64{1, 2, 3} {
		if ranked[i].ID != want {
			t.Errorf("ranked[%d].ID = %d, want %d (stable order)", i, ranked[i].ID, want)
		}
	}
}

func TestRankSortsDescending(t *testing.T) {
	ctx := baseContext()
	recipes := []model.Recipe{
		{ID: 1, Calories: 900},                    // scores low
		{ID: 2, Calories: 500, Recommended: true}, // scores high
	}
	ranked := Rank(recipes, ctx)
	if ranked[0].ID != 2 {
		t.Errorf("ranked[0].ID = %d, want 2", ranked[0].ID)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("ranking not descending at %d: %d > %d", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}
