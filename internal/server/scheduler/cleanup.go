// Package scheduler runs periodic maintenance jobs next to the HTTP server.
package scheduler

import (
	"context"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
)

// Sweeper deactivates expired feedback tokens.
type Sweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupScheduler runs the expired-token sweep on a fixed interval.
type CleanupScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   logging.Logger
}

func NewCleanupScheduler(sweeper Sweeper, interval time.Duration, logger logging.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.With("module", "scheduler"),
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
// A non-positive interval disables the scheduler and Run returns at once.
func (s *CleanupScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info(ctx, "cleanup scheduler disabled")
		return
	}

	s.logger.Info(ctx, "cleanup scheduler started", "interval", s.interval.String())
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "cleanup scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CleanupScheduler) sweep(ctx context.Context) {
	if _, err := s.sweeper.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error(ctx, "expired token cleanup failed", "error", err)
	}
}
