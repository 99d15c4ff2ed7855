package model

import (
	"strconv"
	"strings"
	"time"
)

type FitnessPlan struct {
	ID              int64     `json:"id"`
	MemberID        int64     `json:"member_id"`
	Name            string    `json:"name"`
	DailyCalories   int       `json:"daily_calories"`
	WorkoutDays     string    `json:"workout_days"` // comma-separated weekday numbers, 0=Sunday
	ExercisesPerDay float64   `json:"exercises_per_day"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkoutWeekdays parses the WorkoutDays field into a weekday set.
// Malformed entries are skipped.
func (p *FitnessPlan) WorkoutWeekdays() map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(p.WorkoutDays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days[time.Weekday(n)] = true
	}
	return days
}

// WorkoutDaysPerWeek returns how many distinct weekdays the plan schedules.
func (p *FitnessPlan) WorkoutDaysPerWeek() int {
	return len(p.WorkoutWeekdays())
}
