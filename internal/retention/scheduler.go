package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mchalk/repset/internal/store"
)

// Scheduler ticks periodically and kicks off the daily retention batch
// once the configured hour has passed. The run claim lives in the database,
// so multiple instances never double-run a day.
type Scheduler struct {
	mu           sync.RWMutex
	orchestrator *Orchestrator
	runs         *store.RunStore
	interval     time.Duration
	runHour      int
	logger       *slog.Logger
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewScheduler creates a retention scheduler. interval controls how often
// the run condition is checked; runHour is the earliest UTC hour the daily
// batch may start.
func NewScheduler(o *Orchestrator, runs *store.RunStore, interval time.Duration, runHour int, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		orchestrator: o,
		runs:         runs,
		interval:     interval,
		runHour:      runHour,
		logger:       logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	if now.Hour() < s.runHour {
		return
	}

	day := store.Day(now)
	claimed, err := s.runs.TryBegin(day)
	if err != nil {
		s.logger.Error("claim retention run", "day", day, "error", err)
		return
	}
	if !claimed {
		return
	}

	s.logger.Info("retention run starting", "day", day)
	stats, err := s.orchestrator.Run(ctx)
	if err != nil {
		s.logger.Error("retention run", "day", day, "error", err)
	}
	if err := s.runs.Finish(day, stats); err != nil {
		s.logger.Error("record retention run", "day", day, "error", err)
	}
	s.logger.Info("retention run finished",
		"day", day,
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"campaigns_sent", stats.CampaignsSent,
	)
}
