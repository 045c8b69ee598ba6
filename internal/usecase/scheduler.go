package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsNarrator/internal/ports"
)

// RetentionSweeper removes expired narrations on the driver's schedule.
type RetentionSweeper struct {
	driver    ports.Scheduler
	store     ports.AudioStore
	retention time.Duration
	logger    *slog.Logger
}

// NewRetentionSweeper returns a helper to start/stop recurring sweeps.
// A non-positive retention keeps audio forever.
func NewRetentionSweeper(driver ports.Scheduler, store ports.AudioStore, retention time.Duration, logger *slog.Logger) *RetentionSweeper {
	return &RetentionSweeper{driver: driver, store: store, retention: retention, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (s *RetentionSweeper) Start(ctx context.Context) error {
	if s.driver == nil || s.store == nil || s.retention <= 0 {
		return nil
	}

	job := func(trigger time.Time) {
		s.Sweep(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Sweep deletes run directories idle for longer than the retention window.
func (s *RetentionSweeper) Sweep(ctx context.Context, now time.Time) int {
	removed, err := s.store.Sweep(ctx, now.Add(-s.retention))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("audio sweep failed", "removed", removed, "error", err)
		}
		return removed
	}
	if s.logger != nil && removed > 0 {
		s.logger.Info("audio sweep", "removed", removed)
	}
	return removed
}

// Stop gracefully tears down the underlying scheduler.
func (s *RetentionSweeper) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
