package model

import "time"

// ActivityWindow caps how many recent check-ins and workout logs feed the
// churn scorer. Older history does not change the outcome.
const ActivityWindow = 30

type CheckIn struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Workout log status values.
const (
	WorkoutCompleted = "completed"
	WorkoutSkipped   = "skipped"
)

type WorkoutLog struct {
	ID       int64     `json:"id"`
	MemberID int64     `json:"member_id"`
	Status   string    `json:"status"`
	LoggedAt time.Time `json:"logged_at"`
}
