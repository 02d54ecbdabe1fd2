package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the engine's periodic tick. Cron's per-entry goroutine
// runs ticks one after another; a tick still in flight when the next period
// elapses delays the next run rather than overlapping it.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger
}

// NewScheduler creates a Scheduler running the engine tick at the given
// fixed interval.
func NewScheduler(eng *Engine, tickInterval time.Duration, log *slog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if _, err := c.AddFunc("@every "+tickInterval.String(), s.runTick); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled ticks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for a running tick to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runTick() {
	ctx := context.Background()
	s.log.Debug("scheduled tick starting")
	if err := s.engine.RunTick(ctx); err != nil {
		s.log.Error("scheduled tick failed", "error", err)
	}
}
