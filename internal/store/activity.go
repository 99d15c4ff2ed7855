package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mchalk/repset/internal/model"
)

// ActivityStore provides read/write access to the raw activity history the
// churn scorer consumes: check-ins and workout logs.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) RecordCheckIn(memberID int64, at time.Time) (*model.CheckIn, error) {
	result, err := s.db.Exec(
		`INSERT INTO check_ins (member_id, checked_in_at) VALUES (?, ?)`,
		memberID, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert check-in: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT id, member_id, checked_in_at FROM check_ins WHERE id = ?`, id)
	var c model.CheckIn
	if err := row.Scan(&c.ID, &c.MemberID, &c.CheckedInAt); err != nil {
		return nil, fmt.Errorf("get check-in: %w", err)
	}
	return &c, nil
}

// RecentCheckIns returns up to limit check-in timestamps, most recent first.
func (s *ActivityStore) RecentCheckIns(memberID int64, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = model.ActivityWindow
	}
	rows, err := s.db.Query(
		`SELECT checked_in_at FROM check_ins WHERE member_id = ? ORDER BY checked_in_at DESC LIMIT ?`,
		memberID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (s *ActivityStore) RecordWorkout(memberID int64, status string, at time.Time) (*model.WorkoutLog, error) {
	if status == "" {
		status = model.WorkoutCompleted
	}
	result, err := s.db.Exec(
		`INSERT INTO workout_logs (member_id, status, logged_at) VALUES (?, ?, ?)`,
		memberID, status, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert workout log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT id, member_id, status, logged_at FROM workout_logs WHERE id = ?`, id)
	var w model.WorkoutLog
	if err := row.Scan(&w.ID, &w.MemberID, &w.Status, &w.LoggedAt); err != nil {
		return nil, fmt.Errorf("get workout log: %w", err)
	}
	return &w, nil
}

// RecentWorkouts returns up to limit workout logs, most recent first.
func (s *ActivityStore) RecentWorkouts(memberID int64, limit int) ([]model.WorkoutLog, error) {
	if limit <= 0 {
		limit = model.ActivityWindow
	}
	rows, err := s.db.Query(
		`SELECT id, member_id, status, logged_at FROM workout_logs WHERE member_id = ? ORDER BY logged_at DESC LIMIT ?`,
		memberID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	defer rows.Close()

	var logs []model.WorkoutLog
	for rows.Next() {
		var w model.WorkoutLog
		if err := rows.Scan(&w.ID, &w.MemberID, &w.Status, &w.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		logs = append(logs, w)
	}
	return logs, rows.Err()
}
