package model

import "time"

// RiskLevel is the three-bucket classification of a churn risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk factor tags emitted by the churn scorer.
const (
	FactorLowEngagement      = "low_engagement"
	FactorInfrequentCheckIns = "infrequent_check_ins"
	FactorNoWorkoutsLogged   = "no_workouts_logged"
	FactorNoActiveMembership = "no_active_membership"
)

// Prediction is the current derived snapshot for a member. At most one
// exists per member; recalculation upserts by member id.
type Prediction struct {
	ID                           int64     `json:"id"`
	MemberID                     int64     `json:"member_id"`
	ChurnRisk                    int       `json:"churn_risk"`
	ChurnRiskLevel               RiskLevel `json:"churn_risk_level"`
	EngagementScore              int       `json:"engagement_score"`
	WorkoutCompletionProbability int       `json:"workout_completion_probability"`
	OptimalVisitHour             int       `json:"optimal_visit_hour"`
	PredictedNextVisit           time.Time `json:"predicted_next_visit"`
	RiskFactors                  []string  `json:"risk_factors"`
	CalculatedAt                 time.Time `json:"calculated_at"`
}
