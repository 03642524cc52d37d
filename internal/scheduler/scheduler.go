// Package scheduler runs the pipeline on a cron cadence for daemon mode.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// RunFunc is the unit of work the scheduler drives.
type RunFunc func(ctx context.Context) error

// Scheduler triggers a RunFunc on a cron schedule. The first run fires
// immediately on Start; subsequent runs follow the schedule. Overlapping
// runs are skipped rather than queued.
type Scheduler struct {
	run      RunFunc
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

func New(run RunFunc, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{run: run, schedule: schedule, logger: logger}
}

// Start blocks until ctx is cancelled, then stops the cron loop and waits
// for any in-flight run to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.trigger(ctx) }); err != nil {
		return err
	}

	s.logger.Info("scheduler started", "schedule", s.schedule)
	s.trigger(ctx)
	c.Start()

	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-c.Stop().Done()
	return nil
}

// trigger runs the pipeline once unless a previous run is still going.
func (s *Scheduler) trigger(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skipping this trigger")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
