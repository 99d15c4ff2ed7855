package churn

import (
	"time"

	"github.com/mchalk/repset/internal/model"
)

// Defaults used when history is missing. Missing data is never an error;
// every branch resolves to one of these.
const (
	defaultVisitHour      = 18
	defaultCompletionProb = 50
	defaultNextVisitGap   = 72 * time.Hour
)

// Input is a member's activity history as supplied by the activity store.
// CheckIns and Workouts are ordered most recent first and capped at
// model.ActivityWindow entries.
type Input struct {
	Now              time.Time
	CreatedAt        time.Time
	CheckIns         []time.Time
	Workouts         []model.WorkoutLog
	ActiveMembership bool
}

// Result carries everything Score derives from the activity history.
// DaysInactive feeds the campaign classifier; the rest becomes the member's
// prediction snapshot.
type Result struct {
	ChurnRisk                    int
	ChurnRiskLevel               model.RiskLevel
	EngagementScore              int
	WorkoutCompletionProbability int
	OptimalVisitHour             int
	PredictedNextVisit           time.Time
	RiskFactors                  []string
	DaysInactive                 int
}

// Score derives a churn risk and engagement profile from activity history.
// It is a pure function of its input: identical inputs always produce
// identical results.
func Score(in Input) Result {
	daysInactive := daysSinceLastActivity(in)
	freq := checkInFrequency(in)

	// The inactivity bands describe a lapsed habit, so they only apply to
	// members with check-in history. A member who has never checked in is
	// penalized through frequency alone.
	risk := 0
	if len(in.CheckIns) > 0 {
		risk = baseRisk(daysInactive)
	}
	if freq < 2 {
		risk += 20
	} else if freq < 4 {
		risk += 10
	}
	if risk > 100 {
		risk = 100
	}

	r := Result{
		ChurnRisk:                    risk,
		ChurnRiskLevel:               riskLevel(risk),
		EngagementScore:              engagementScore(in, freq),
		WorkoutCompletionProbability: completionProbability(in.Workouts),
		OptimalVisitHour:             optimalVisitHour(in.CheckIns),
		PredictedNextVisit:           predictNextVisit(in),
		DaysInactive:                 daysInactive,
	}

	if daysInactive > 14 {
		r.RiskFactors = append(r.RiskFactors, model.FactorLowEngagement)
	}
	if freq < 2 {
		r.RiskFactors = append(r.RiskFactors, model.FactorInfrequentCheckIns)
	}
	if len(in.Workouts) == 0 {
		r.RiskFactors = append(r.RiskFactors, model.FactorNoWorkoutsLogged)
	}
	if !in.ActiveMembership {
		r.RiskFactors = append(r.RiskFactors, model.FactorNoActiveMembership)
	}

	return r
}

// daysSinceLastActivity measures from the most recent check-in, or from
// account creation when the member has never checked in.
func daysSinceLastActivity(in Input) int {
	ref := in.CreatedAt
	if len(in.CheckIns) > 0 {
		ref = in.CheckIns[0]
	}
	days := int(in.Now.Sub(ref).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func baseRisk(daysInactive int) int {
	switch {
	case daysInactive >= 90:
		return 90
	case daysInactive >= 60:
		return 70
	case daysInactive >= 30:
		return 50
	case daysInactive >= 14:
		return 30
	case daysInactive >= 7:
		return 15
	default:
		return 0
	}
}

// checkInFrequency is check-ins per rolling 30-day period over the
// account's lifetime.
func checkInFrequency(in Input) float64 {
	daysSinceCreation := in.Now.Sub(in.CreatedAt).Hours() / 24
	if daysSinceCreation < 1 {
		daysSinceCreation = 1
	}
	return float64(len(in.CheckIns)) / daysSinceCreation * 30
}

func riskLevel(risk int) model.RiskLevel {
	switch {
	case risk >= 70:
		return model.RiskHigh
	case risk >= 40:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// optimalVisitHour is the modal hour-of-day across historical check-ins.
// Ties break toward the hour seen first in iteration order, which keeps
// results reproducible for identical input.
func optimalVisitHour(checkIns []time.Time) int {
	if len(checkIns) == 0 {
		return defaultVisitHour
	}

	var counts [24]int
	best := checkIns[0].Hour()
	bestCount := 0
	for _, t := range checkIns {
		h := t.Hour()
		counts[h]++
		// Strictly-greater comparison keeps the first hour to reach the
		// top count, so ties resolve to the first-seen hour.
		if counts[h] > bestCount {
			bestCount = counts[h]
			best = h
		}
	}
	return best
}

func completionProbability(workouts []model.WorkoutLog) int {
	if len(workouts) == 0 {
		return defaultCompletionProb
	}
	completed := 0
	for _, w := range workouts {
		if w.Status == model.WorkoutCompleted {
			completed++
		}
	}
	return 100 * completed / len(workouts)
}

// engagementScore accumulates fixed contributions for activity breadth.
// The contributions sum to at most 100 by construction.
func engagementScore(in Input, freq float64) int {
	score := 0
	if len(in.CheckIns) > 0 {
		score += 30
	}
	if len(in.Workouts) > 0 {
		score += 20
	}
	if in.ActiveMembership {
		score += 20
	}
	switch {
	case freq >= 8:
		score += 30
	case freq >= 4:
		score += 20
	case freq >= 2:
		score += 10
	}
	return score
}

// predictNextVisit extrapolates from the average inter-check-in gap. With
// fewer than two check-ins the prediction falls back to now + 3 days.
func predictNextVisit(in Input) time.Time {
	if len(in.CheckIns) < 2 {
		return in.Now.Add(defaultNextVisitGap)
	}
	newest := in.CheckIns[0]
	oldest := in.CheckIns[len(in.CheckIns)-1]
	avgGap := newest.Sub(oldest) / time.Duration(len(in.CheckIns)-1)
	return newest.Add(avgGap)
}
