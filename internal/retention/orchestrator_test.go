package retention

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mchalk/repset/internal/database"
	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/notify"
	"github.com/mchalk/repset/internal/store"
	"github.com/mchalk/repset/internal/tracking"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.Message
	fail bool
}

func (f *fakeSender) Send(member *model.Member, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("delivery down")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type testEnv struct {
	db        *sql.DB
	members   *store.MemberStore
	activity  *store.ActivityStore
	campaigns *store.CampaignStore
	preds     *store.PredictionStore
	sender    *fakeSender
	orch      *Orchestrator
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:        db,
		members:   store.NewMemberStore(db),
		activity:  store.NewActivityStore(db),
		campaigns: store.NewCampaignStore(db),
		preds:     store.NewPredictionStore(db),
		sender:    &fakeSender{},
	}
	env.orch = NewOrchestrator(
		env.members, env.activity, env.preds, env.campaigns,
		env.sender, tracking.NewSigner("test-secret"),
		"http://localhost:8080", 2, nil,
		slog.New(slog.DiscardHandler),
	)
	return env
}

// createMemberInactive creates an active member whose latest check-in was
// daysAgo days in the past.
func (env *testEnv) createMemberInactive(t *testing.T, email string, daysAgo int) *model.Member {
	t.Helper()
	m, err := env.members.Create("Test Member", email, model.TierBasic)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	// Backdate the account so frequency math is stable.
	if _, err := env.db.Exec(`UPDATE members SET created_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-365*24*time.Hour), m.ID); err != nil {
		t.Fatalf("backdate member: %v", err)
	}
	if daysAgo >= 0 {
		at := time.Now().UTC().Add(-time.Duration(daysAgo) * 24 * time.Hour)
		if _, err := env.activity.RecordCheckIn(m.ID, at); err != nil {
			t.Fatalf("record check-in: %v", err)
		}
	}
	m, err = env.members.GetByID(m.ID)
	if err != nil {
		t.Fatalf("reload member: %v", err)
	}
	return m
}

func TestRunUpsertsPredictionAndCampaign(t *testing.T) {
	env := setupEnv(t)
	m := env.createMemberInactive(t, "inactive@example.com", 20)

	stats, err := env.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Processed != 1 || stats.Succeeded != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.CampaignsSent != 1 {
		t.Errorf("CampaignsSent = %d, want 1", stats.CampaignsSent)
	}

	pred, err := env.preds.GetCurrent(m.ID)
	if err != nil {
		t.Fatalf("get prediction: %v", err)
	}
	if pred == nil {
		t.Fatal("expected a prediction snapshot")
	}
	if pred.ChurnRisk < 0 || pred.ChurnRisk > 100 {
		t.Errorf("ChurnRisk = %d out of range", pred.ChurnRisk)
	}

	rec, err := env.campaigns.GetByMemberAndTier(m.ID, model.TierWeMissYou)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a we_miss_you campaign record")
	}
	if env.sender.count() != 1 {
		t.Errorf("sent %d messages, want 1", env.sender.count())
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	m := env.createMemberInactive(t, "inactive@example.com", 20)

	if _, err := env.orch.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := env.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if stats.CampaignsSent != 0 {
		t.Errorf("second run CampaignsSent = %d, want 0", stats.CampaignsSent)
	}

	var count int
	if err := env.db.QueryRow(`SELECT COUNT(*) FROM campaign_records WHERE member_id = ?`, m.ID).Scan(&count); err != nil {
		t.Fatalf("count campaigns: %v", err)
	}
	if count != 1 {
		t.Errorf("campaign rows = %d, want 1", count)
	}
	if env.sender.count() != 1 {
		t.Errorf("sent %d messages across two runs, want 1", env.sender.count())
	}
}

func TestRunEscalatesTier(t *testing.T) {
	env := setupEnv(t)
	m := env.createMemberInactive(t, "inactive@example.com", 40)

	// Existing we_miss_you record from an earlier stage.
	sent := time.Now().UTC().Add(-25 * 24 * time.Hour)
	if _, err := env.campaigns.Upsert(m.ID, model.TierWeMissYou, 15, sent); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}

	if _, err := env.orch.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	rec, err := env.campaigns.GetByMemberAndTier(m.ID, model.TierComeBack)
	if err != nil {
		t.Fatalf("get come_back: %v", err)
	}
	if rec == nil {
		t.Fatal("expected escalation to come_back")
	}

	earlier, err := env.campaigns.GetByMemberAndTier(m.ID, model.TierWeMissYou)
	if err != nil {
		t.Fatalf("get we_miss_you: %v", err)
	}
	if !earlier.SentAt.Equal(sent) {
		t.Errorf("we_miss_you record touched: SentAt = %v, want %v", earlier.SentAt, sent)
	}
}

func TestRunActiveMemberNoCampaign(t *testing.T) {
	env := setupEnv(t)
	m := env.createMemberInactive(t, "regular@example.com", 2)

	stats, err := env.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.CampaignsSent != 0 {
		t.Errorf("CampaignsSent = %d, want 0", stats.CampaignsSent)
	}

	tier, err := env.campaigns.CurrentTier(m.ID)
	if err != nil {
		t.Fatalf("current tier: %v", err)
	}
	if tier != model.TierNone {
		t.Errorf("tier = %q, want none", tier)
	}
}

func TestRunDeliveryFailureStillRecordsSend(t *testing.T) {
	env := setupEnv(t)
	m := env.createMemberInactive(t, "inactive@example.com", 20)
	env.sender.fail = true

	stats, err := env.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Delivery failure is logged, not surfaced: the member still succeeds
	// and the ledger records the send decision.
	if stats.Failed != 0 || stats.Succeeded != 1 {
		t.Errorf("stats = %+v, want success despite delivery failure", stats)
	}
	rec, _ := env.campaigns.GetByMemberAndTier(m.ID, model.TierWeMissYou)
	if rec == nil {
		t.Fatal("expected campaign record despite delivery failure")
	}
}

func TestRunIsolatesMemberFailures(t *testing.T) {
	env := setupEnv(t)
	env.createMemberInactive(t, "ok@example.com", 5)
	bad := env.createMemberInactive(t, "bad@example.com", 5)

	// Sabotage one member's activity history to force a per-member error.
	if _, err := env.db.Exec(`UPDATE check_ins SET checked_in_at = 'garbage' WHERE member_id = ?`, bad.ID); err != nil {
		t.Fatalf("sabotage check-in: %v", err)
	}

	stats, err := env.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Processed != 2 {
		t.Errorf("Processed = %d, want 2", stats.Processed)
	}
	if stats.Failed != 1 || stats.Succeeded != 1 {
		t.Errorf("stats = %+v, want one failure and one success", stats)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	env := setupEnv(t)
	env.createMemberInactive(t, "a@example.com", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.orch.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTrackingURLsInMessage(t *testing.T) {
	env := setupEnv(t)
	env.createMemberInactive(t, "inactive@example.com", 20)

	if _, err := env.orch.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.sender.count() != 1 {
		t.Fatalf("sent %d messages, want 1", env.sender.count())
	}

	msg := env.sender.sent[0]
	if msg.ClickURL == "" || msg.OpenPixelURL == "" {
		t.Errorf("message missing tracking URLs: %+v", msg)
	}
	if msg.Subject == "" || msg.Body == "" {
		t.Errorf("message missing content: %+v", msg)
	}
}
