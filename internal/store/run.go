package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RunStore tracks retention batch runs, one row per calendar day. The
// primary-key insert doubles as the once-per-day guard.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RunStats summarizes one batch run.
type RunStats struct {
	Processed     int `json:"processed"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	CampaignsSent int `json:"campaigns_sent"`
}

// Day formats a time as the run-key date.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TryBegin claims the run for the given day. It returns false if a run for
// that day was already claimed, which keeps concurrent schedulers from
// double-running the batch.
func (s *RunStore) TryBegin(day string) (bool, error) {
	result, err := s.db.Exec(`INSERT OR IGNORE INTO retention_runs (day) VALUES (?)`, day)
	if err != nil {
		return false, fmt.Errorf("begin retention run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Finish records the outcome of the day's run.
func (s *RunStore) Finish(day string, stats RunStats) error {
	_, err := s.db.Exec(
		`UPDATE retention_runs SET finished_at = datetime('now'), processed = ?, succeeded = ?, failed = ?, campaigns_sent = ? WHERE day = ?`,
		stats.Processed, stats.Succeeded, stats.Failed, stats.CampaignsSent, day,
	)
	if err != nil {
		return fmt.Errorf("finish retention run: %w", err)
	}
	return nil
}

// LastFinished returns the stats of the most recent completed run, or nil.
func (s *RunStore) LastFinished() (*RunStats, error) {
	row := s.db.QueryRow(
		`SELECT processed, succeeded, failed, campaigns_sent FROM retention_runs WHERE finished_at IS NOT NULL ORDER BY day DESC LIMIT 1`,
	)
	var stats RunStats
	err := row.Scan(&stats.Processed, &stats.Succeeded, &stats.Failed, &stats.CampaignsSent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last run: %w", err)
	}
	return &stats, nil
}
