package store

import (
	"database/sql"
	"fmt"

	"github.com/mchalk/repset/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

func scanPlan(scanner interface{ Scan(...any) error }) (*model.FitnessPlan, error) {
	var p model.FitnessPlan
	err := scanner.Scan(
		&p.ID, &p.MemberID, &p.Name, &p.DailyCalories, &p.WorkoutDays,
		&p.ExercisesPerDay, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const planCols = `id, member_id, name, daily_calories, workout_days, exercises_per_day, active, created_at, updated_at`

// Create inserts a new plan and deactivates any previous active plan for the
// member, keeping at most one active plan per member.
func (s *PlanStore) Create(memberID int64, name string, dailyCalories int, workoutDays string, exercisesPerDay float64) (*model.FitnessPlan, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE fitness_plans SET active = 0, updated_at = datetime('now') WHERE member_id = ? AND active = 1`, memberID); err != nil {
		return nil, fmt.Errorf("deactivate previous plans: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO fitness_plans (member_id, name, daily_calories, workout_days, exercises_per_day) VALUES (?, ?, ?, ?, ?)`,
		memberID, name, dailyCalories, workoutDays, exercisesPerDay,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id int64) (*model.FitnessPlan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM fitness_plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// GetActive returns the member's current active plan, or nil if none exists.
func (s *PlanStore) GetActive(memberID int64) (*model.FitnessPlan, error) {
	row := s.db.QueryRow(
		`SELECT `+planCols+` FROM fitness_plans WHERE member_id = ? AND active = 1 ORDER BY created_at DESC LIMIT 1`,
		memberID,
	)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active plan: %w", err)
	}
	return p, nil
}
