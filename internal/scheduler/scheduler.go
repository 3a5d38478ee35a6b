package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"video_importer/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context, trigger domain.Trigger) (*domain.RunSummary, error)
}

type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(syncer Syncer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs a sync immediately and then once per interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	_, err := s.syncer.Sync(ctx, domain.TriggerScheduled)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRunInProgress):
		s.logger.Warn("scheduled sync skipped, run in progress")
	default:
		s.logger.Error("sync failed", "error", err)
	}
}
