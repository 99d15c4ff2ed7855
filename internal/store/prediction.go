package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mchalk/repset/internal/model"
)

// PredictionStore holds at most one current prediction per member. Writes
// always upsert by member id, so the "one current snapshot" invariant is
// enforced here rather than assumed by callers.
type PredictionStore struct {
	db *sql.DB
}

func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

func scanPrediction(scanner interface{ Scan(...any) error }) (*model.Prediction, error) {
	var p model.Prediction
	var factors string
	err := scanner.Scan(
		&p.ID, &p.MemberID, &p.ChurnRisk, &p.ChurnRiskLevel, &p.EngagementScore,
		&p.WorkoutCompletionProbability, &p.OptimalVisitHour, &p.PredictedNextVisit,
		&factors, &p.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}
	if factors != "" {
		p.RiskFactors = strings.Split(factors, ",")
	}
	return &p, nil
}

const predictionCols = `id, member_id, churn_risk, churn_risk_level, engagement_score, workout_completion_probability, optimal_visit_hour, predicted_next_visit, risk_factors, calculated_at`

// GetCurrent returns the member's current prediction, or nil if none has
// been calculated yet.
func (s *PredictionStore) GetCurrent(memberID int64) (*model.Prediction, error) {
	row := s.db.QueryRow(`SELECT `+predictionCols+` FROM predictions WHERE member_id = ?`, memberID)
	p, err := scanPrediction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

// Upsert inserts the prediction or replaces the member's existing snapshot.
func (s *PredictionStore) Upsert(p model.Prediction) (*model.Prediction, error) {
	factors := strings.Join(p.RiskFactors, ",")
	_, err := s.db.Exec(
		`INSERT INTO predictions (member_id, churn_risk, churn_risk_level, engagement_score, workout_completion_probability, optimal_visit_hour, predicted_next_visit, risk_factors, calculated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(member_id) DO UPDATE SET
		     churn_risk = excluded.churn_risk,
		     churn_risk_level = excluded.churn_risk_level,
		     engagement_score = excluded.engagement_score,
		     workout_completion_probability = excluded.workout_completion_probability,
		     optimal_visit_hour = excluded.optimal_visit_hour,
		     predicted_next_visit = excluded.predicted_next_visit,
		     risk_factors = excluded.risk_factors,
		     calculated_at = excluded.calculated_at`,
		p.MemberID, p.ChurnRisk, p.ChurnRiskLevel, p.EngagementScore,
		p.WorkoutCompletionProbability, p.OptimalVisitHour,
		p.PredictedNextVisit.UTC(), factors, p.CalculatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert prediction: %w", err)
	}
	return s.GetCurrent(p.MemberID)
}
