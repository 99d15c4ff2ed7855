// Package retention drives the periodic batch that refreshes member
// predictions and escalates re-engagement campaigns. Every write is an
// idempotent upsert, so an aborted run can simply be re-run.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mchalk/repset/internal/campaign"
	"github.com/mchalk/repset/internal/churn"
	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/notify"
	"github.com/mchalk/repset/internal/store"
	"github.com/mchalk/repset/internal/tracking"
)

// Sender is the outbound notification contract. Delivery failures are
// logged and counted, never retried here.
type Sender interface {
	Send(member *model.Member, msg notify.Message) error
}

// Event reports orchestrator progress, e.g. to the admin websocket hub.
type Event struct {
	Type     string          `json:"type"` // run_started, member_processed, campaign_sent, run_finished
	MemberID int64           `json:"member_id,omitempty"`
	Tier     string          `json:"tier,omitempty"`
	Stats    *store.RunStats `json:"stats,omitempty"`
}

// EventCallback receives progress events. May be nil.
type EventCallback func(Event)

// Orchestrator processes active members one at a time per worker. Members
// touch disjoint records, so workers never contend beyond the database.
type Orchestrator struct {
	members     *store.MemberStore
	activity    *store.ActivityStore
	predictions *store.PredictionStore
	campaigns   *store.CampaignStore
	sender      Sender
	signer      *tracking.Signer
	baseURL     string
	workers     int
	callback    EventCallback
	logger      *slog.Logger
}

func NewOrchestrator(
	members *store.MemberStore,
	activity *store.ActivityStore,
	predictions *store.PredictionStore,
	campaigns *store.CampaignStore,
	sender Sender,
	signer *tracking.Signer,
	baseURL string,
	workers int,
	callback EventCallback,
	logger *slog.Logger,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		members:     members,
		activity:    activity,
		predictions: predictions,
		campaigns:   campaigns,
		sender:      sender,
		signer:      signer,
		baseURL:     baseURL,
		workers:     workers,
		callback:    callback,
		logger:      logger,
	}
}

func (o *Orchestrator) emit(e Event) {
	if o.callback != nil {
		o.callback(e)
	}
}

// Run processes every active member and returns aggregate stats. One
// member's failure never aborts the others; ctx cancellation stops the run
// between members.
func (o *Orchestrator) Run(ctx context.Context) (store.RunStats, error) {
	members, err := o.members.ListActive()
	if err != nil {
		return store.RunStats{}, fmt.Errorf("list active members: %w", err)
	}

	o.emit(Event{Type: "run_started"})

	var (
		mu    sync.Mutex
		stats store.RunStats
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, o.workers)

	for i := range members {
		if ctx.Err() != nil {
			break
		}
		member := members[i]

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			sent, err := o.processMember(ctx, &member)

			mu.Lock()
			stats.Processed++
			if err != nil {
				stats.Failed++
			} else {
				stats.Succeeded++
			}
			if sent {
				stats.CampaignsSent++
			}
			mu.Unlock()

			if err != nil {
				o.logger.Error("process member", "member_id", member.ID, "error", err)
			}
			o.emit(Event{Type: "member_processed", MemberID: member.ID})
		}()
	}
	wg.Wait()

	o.emit(Event{Type: "run_finished", Stats: &stats})
	if ctx.Err() != nil {
		return stats, ctx.Err()
	}
	return stats, nil
}

// ProcessMember refreshes one member's prediction and campaign state.
// Exposed for the on-demand rescore endpoint.
func (o *Orchestrator) ProcessMember(ctx context.Context, member *model.Member) (*model.Prediction, error) {
	result, err := o.score(member)
	if err != nil {
		return nil, err
	}
	return o.predictions.Upsert(predictionFrom(member.ID, result))
}

func (o *Orchestrator) score(member *model.Member) (churn.Result, error) {
	checkIns, err := o.activity.RecentCheckIns(member.ID, model.ActivityWindow)
	if err != nil {
		return churn.Result{}, fmt.Errorf("recent check-ins: %w", err)
	}
	workouts, err := o.activity.RecentWorkouts(member.ID, model.ActivityWindow)
	if err != nil {
		return churn.Result{}, fmt.Errorf("recent workouts: %w", err)
	}

	return churn.Score(churn.Input{
		Now:              time.Now().UTC(),
		CreatedAt:        member.CreatedAt,
		CheckIns:         checkIns,
		Workouts:         workouts,
		ActiveMembership: member.HasActiveMembership(),
	}), nil
}

func predictionFrom(memberID int64, r churn.Result) model.Prediction {
	return model.Prediction{
		MemberID:                     memberID,
		ChurnRisk:                    r.ChurnRisk,
		ChurnRiskLevel:               r.ChurnRiskLevel,
		EngagementScore:              r.EngagementScore,
		WorkoutCompletionProbability: r.WorkoutCompletionProbability,
		OptimalVisitHour:             r.OptimalVisitHour,
		PredictedNextVisit:           r.PredictedNextVisit,
		RiskFactors:                  r.RiskFactors,
		CalculatedAt:                 time.Now().UTC(),
	}
}

// processMember scores the member, persists the prediction, and escalates
// the campaign if warranted. The campaign record is written before delivery
// is attempted: "sent" means "decided and recorded", matching the
// fire-and-forget delivery model.
func (o *Orchestrator) processMember(ctx context.Context, member *model.Member) (campaignSent bool, err error) {
	result, err := o.score(member)
	if err != nil {
		return false, err
	}

	if _, err := o.predictions.Upsert(predictionFrom(member.ID, result)); err != nil {
		return false, err
	}

	current, err := o.campaigns.CurrentTier(member.ID)
	if err != nil {
		return false, err
	}

	tier, ok := campaign.Classify(result.DaysInactive, current)
	if !ok {
		return false, nil
	}

	rec, err := o.campaigns.Upsert(member.ID, tier, result.DaysInactive, time.Now().UTC())
	if err != nil {
		return false, err
	}

	o.emit(Event{Type: "campaign_sent", MemberID: member.ID, Tier: string(tier)})

	// Delivery is best-effort; a failed send does not fail the member.
	msg, err := o.buildMessage(member, rec, tier)
	if err != nil {
		o.logger.Warn("build campaign message", "member_id", member.ID, "error", err)
		return true, nil
	}
	if err := o.sender.Send(member, msg); err != nil {
		o.logger.Warn("campaign delivery failed", "member_id", member.ID, "tier", tier, "error", err)
	}

	return true, nil
}

func (o *Orchestrator) buildMessage(member *model.Member, rec *model.CampaignRecord, tier model.CampaignTier) (notify.Message, error) {
	content := campaign.ContentFor(tier, member.Name)
	msg := notify.Message{
		Subject: content.Subject,
		Body:    content.Body,
		Tag:     "campaign-" + string(tier),
	}

	if o.signer != nil && rec != nil {
		token, err := o.signer.Token(rec.ID)
		if err != nil {
			return msg, fmt.Errorf("tracking token: %w", err)
		}
		msg.ClickURL = fmt.Sprintf("%s/t/c/%s", o.baseURL, token)
		msg.OpenPixelURL = fmt.Sprintf("%s/t/o/%s", o.baseURL, token)
	}
	return msg, nil
}
