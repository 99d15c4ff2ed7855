package churn

import (
	"testing"
	"time"

	"github.com/mchalk/repset/internal/model"
)

var now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestNewMemberNoCheckIns(t *testing.T) {
	// Created 10 days ago, never checked in: base risk 0, frequency
	// penalty +20.
	r := Score(Input{
		Now:              now,
		CreatedAt:        daysAgo(10),
		ActiveMembership: true,
	})

	if r.DaysInactive != 10 {
		t.Errorf("DaysInactive = %d, want 10", r.DaysInactive)
	}
	if r.ChurnRisk != 20 {
		t.Errorf("ChurnRisk = %d, want 20", r.ChurnRisk)
	}
	if r.ChurnRiskLevel != model.RiskLow {
		t.Errorf("ChurnRiskLevel = %q, want %q", r.ChurnRiskLevel, model.RiskLow)
	}
}

func TestNeverCheckedInSkipsInactivityBands(t *testing.T) {
	// An old account with zero check-ins has no lapsed habit to score.
	// The inactivity bands stay off no matter how long ago it was
	// created; only the frequency penalty applies.
	r := Score(Input{
		Now:              now,
		CreatedAt:        daysAgo(100),
		ActiveMembership: true,
	})

	if r.DaysInactive != 100 {
		t.Errorf("DaysInactive = %d, want 100", r.DaysInactive)
	}
	if r.ChurnRisk != 20 {
		t.Errorf("ChurnRisk = %d, want 20", r.ChurnRisk)
	}
	if r.ChurnRiskLevel != model.RiskLow {
		t.Errorf("ChurnRiskLevel = %q, want %q", r.ChurnRiskLevel, model.RiskLow)
	}

	// The same inactivity with a single old check-in does engage the
	// bands and clamps.
	withHistory := Score(Input{
		Now:              now,
		CreatedAt:        daysAgo(100),
		CheckIns:         []time.Time{daysAgo(100)},
		ActiveMembership: true,
	})
	if withHistory.ChurnRisk != 100 {
		t.Errorf("ChurnRisk with history = %d, want 100", withHistory.ChurnRisk)
	}
}

func TestLongInactiveClampsTo100(t *testing.T) {
	r := Score(Input{
		Now:       now,
		CreatedAt: daysAgo(200),
		CheckIns:  []time.Time{daysAgo(95)},
	})

	// Base 90 + frequency penalty 20, clamped.
	if r.ChurnRisk != 100 {
		t.Errorf("ChurnRisk = %d, want 100", r.ChurnRisk)
	}
	if r.ChurnRiskLevel != model.RiskHigh {
		t.Errorf("ChurnRiskLevel = %q, want %q", r.ChurnRiskLevel, model.RiskHigh)
	}

	want := []string{
		model.FactorLowEngagement,
		model.FactorInfrequentCheckIns,
		model.FactorNoWorkoutsLogged,
		model.FactorNoActiveMembership,
	}
	if len(r.RiskFactors) != len(want) {
		t.Fatalf("RiskFactors = %v, want %v", r.RiskFactors, want)
	}
	for i, f := range want {
		if r.RiskFactors[i] != f {
			t.Errorf("RiskFactors[%d] = %q, want %q", i, r.RiskFactors[i], f)
		}
	}
}

func TestRiskLevelBoundary(t *testing.T) {
	cases := []struct {
		risk int
		want model.RiskLevel
	}{
		{0, model.RiskLow},
		{39, model.RiskLow},
		{40, model.RiskMedium},
		{69, model.RiskMedium},
		{70, model.RiskHigh},
		{100, model.RiskHigh},
	}
	for _, tc := range cases {
		if got := riskLevel(tc.risk); got != tc.want {
			t.Errorf("riskLevel(%d) = %q, want %q", tc.risk, got, tc.want)
		}
	}
}

func TestBaseRiskSteps(t *testing.T) {
	cases := []struct {
		days, want int
	}{
		{0, 0}, {6, 0}, {7, 15}, {13, 15}, {14, 30}, {29, 30},
		{30, 50}, {59, 50}, {60, 70}, {89, 70}, {90, 90}, {365, 90},
	}
	for _, tc := range cases {
		if got := baseRisk(tc.days); got != tc.want {
			t.Errorf("baseRisk(%d) = %d, want %d", tc.days, got, tc.want)
		}
	}
}

func TestFrequentMemberLowRisk(t *testing.T) {
	// Checks in every other day: frequency 9 per 30 days, no penalty.
	var checkIns []time.Time
	for i := 1; i <= 15; i++ {
		checkIns = append(checkIns, daysAgo(i*2))
	}
	r := Score(Input{
		Now:              now,
		CreatedAt:        daysAgo(50),
		CheckIns:         checkIns,
		Workouts:         []model.WorkoutLog{{Status: model.WorkoutCompleted}},
		ActiveMembership: true,
	})

	if r.ChurnRisk != 0 {
		t.Errorf("ChurnRisk = %d, want 0", r.ChurnRisk)
	}
	if r.EngagementScore != 100 {
		t.Errorf("EngagementScore = %d, want 100", r.EngagementScore)
	}
	if len(r.RiskFactors) != 0 {
		t.Errorf("RiskFactors = %v, want none", r.RiskFactors)
	}
}

func TestOptimalVisitHourMode(t *testing.T) {
	mk := func(day, hour int) time.Time {
		return time.Date(2026, 7, day, hour, 0, 0, 0, time.UTC)
	}
	checkIns := []time.Time{
		mk(30, 7), mk(28, 19), mk(26, 19), mk(24, 7), mk(22, 19),
	}
	// 19 appears three times, 7 twice.
	if got := optimalVisitHour(checkIns); got != 19 {
		t.Errorf("optimalVisitHour = %d, want 19", got)
	}
}

func TestOptimalVisitHourTieFirstSeen(t *testing.T) {
	mk := func(day, hour int) time.Time {
		return time.Date(2026, 7, day, hour, 0, 0, 0, time.UTC)
	}
	// 6 and 18 both appear twice; 6 is seen first.
	checkIns := []time.Time{mk(30, 6), mk(28, 18), mk(26, 6), mk(24, 18)}
	if got := optimalVisitHour(checkIns); got != 6 {
		t.Errorf("optimalVisitHour = %d, want 6 (first-seen tiebreak)", got)
	}
}

func TestOptimalVisitHourDefault(t *testing.T) {
	if got := optimalVisitHour(nil); got != 18 {
		t.Errorf("optimalVisitHour(nil) = %d, want 18", got)
	}
}

func TestCompletionProbability(t *testing.T) {
	logs := []model.WorkoutLog{
		{Status: model.WorkoutCompleted},
		{Status: model.WorkoutCompleted},
		{Status: model.WorkoutSkipped},
		{Status: model.WorkoutCompleted},
	}
	if got := completionProbability(logs); got != 75 {
		t.Errorf("completionProbability = %d, want 75", got)
	}
	if got := completionProbability(nil); got != 50 {
		t.Errorf("completionProbability(nil) = %d, want 50", got)
	}
}

func TestPredictNextVisitAverageGap(t *testing.T) {
	checkIns := []time.Time{daysAgo(2), daysAgo(4), daysAgo(6), daysAgo(8)}
	r := Score(Input{Now: now, CreatedAt: daysAgo(30), CheckIns: checkIns})

	// Span 6 days over 3 gaps: average gap 2 days past the newest check-in.
	want := daysAgo(0)
	if !r.PredictedNextVisit.Equal(want) {
		t.Errorf("PredictedNextVisit = %v, want %v", r.PredictedNextVisit, want)
	}
}

func TestPredictNextVisitDefault(t *testing.T) {
	r := Score(Input{Now: now, CreatedAt: daysAgo(5), CheckIns: []time.Time{daysAgo(1)}})
	want := now.Add(72 * time.Hour)
	if !r.PredictedNextVisit.Equal(want) {
		t.Errorf("PredictedNextVisit = %v, want %v", r.PredictedNextVisit, want)
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := Input{
		Now:       now,
		CreatedAt: daysAgo(45),
		CheckIns:  []time.Time{daysAgo(3), daysAgo(9), daysAgo(12)},
		Workouts: []model.WorkoutLog{
			{Status: model.WorkoutCompleted},
			{Status: model.WorkoutSkipped},
		},
		ActiveMembership: true,
	}
	a := Score(in)
	b := Score(in)

	if a.ChurnRisk != b.ChurnRisk || a.EngagementScore != b.EngagementScore ||
		a.OptimalVisitHour != b.OptimalVisitHour || !a.PredictedNextVisit.Equal(b.PredictedNextVisit) {
		t.Errorf("Score is not deterministic: %+v vs %+v", a, b)
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []Input{
		{Now: now, CreatedAt: daysAgo(1)},
		{Now: now, CreatedAt: daysAgo(1000), CheckIns: []time.Time{daysAgo(500)}},
		{Now: now, CreatedAt: now},
		{Now: now, CreatedAt: daysAgo(30), CheckIns: []time.Time{daysAgo(1), daysAgo(2), daysAgo(3)}, ActiveMembership: true},
	}
	for i, in := range inputs {
		r := Score(in)
		if r.ChurnRisk < 0 || r.ChurnRisk > 100 {
			t.Errorf("input %d: ChurnRisk %d out of [0,100]", i, r.ChurnRisk)
		}
		if r.EngagementScore < 0 || r.EngagementScore > 100 {
			t.Errorf("input %d: EngagementScore %d out of [0,100]", i, r.EngagementScore)
		}
		if r.OptimalVisitHour < 0 || r.OptimalVisitHour > 23 {
			t.Errorf("input %d: OptimalVisitHour %d out of [0,23]", i, r.OptimalVisitHour)
		}
	}
}
