package routine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/coastal-alert-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// PassRunner runs a single alert pass.
type PassRunner interface {
	RunPass(ctx context.Context) error
}

// Scheduler runs one pass per day at a fixed local wall-clock time.
type Scheduler struct {
	runner  PassRunner
	hour    int
	minute  int
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	armed   atomic.Bool
}

// NewScheduler creates a daily scheduler firing at hour:minute in clock's
// local time zone.
func NewScheduler(runner PassRunner, hour, minute int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		runner:  runner,
		hour:    hour,
		minute:  minute,
		clock:   clock,
		logger:  logger.With("component", "scheduler"),
		metrics: metrics,
	}
}

// Run blocks until ctx is cancelled. Passes run sequentially; a failed pass is
// logged and the scheduler waits for the next slot.
func (s *Scheduler) Run(ctx context.Context) error {
	s.metrics.SchedulerRunning.Set(1)
	s.armed.Store(true)
	defer func() {
		s.armed.Store(false)
		s.metrics.SchedulerRunning.Set(0)
	}()

	for {
		now := s.clock.Now()
		next := NextRun(now, s.hour, s.minute)
		s.logger.Info("next alert pass scheduled", "at", next, "in", next.Sub(now).Round(time.Second))

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-timer.Chan():
		}

		if err := s.runner.RunPass(ctx); err != nil {
			s.logger.Warn("scheduled pass failed, waiting for next slot", "error", err)
		}
	}
}

// CheckReadiness returns nil while Run is waiting for or running a pass. The
// outcome of individual passes is reported through metrics, not readiness.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.armed.Load() {
		return errors.New("scheduler is not running")
	}
	return nil
}

// NextRun returns the first hour:minute strictly after now, in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
