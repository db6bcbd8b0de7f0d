// Package metrics stores the per-report feedback funnel timestamps.
package metrics

import (
	"context"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

type Repository interface {
	// Init creates the metrics row for a report, or resets an existing one
	// when a token is re-issued: token_generated_at moves to at and the
	// remaining funnel fields are cleared.
	Init(ctx context.Context, reportID int64, at time.Time) error

	// Stamp sets field to at only if it is still null, and reports whether
	// anything changed. The first link click and the first completion also
	// record the whole hours elapsed since token_generated_at.
	Stamp(ctx context.Context, reportID int64, field models.MetricField, at time.Time) (bool, error)

	Get(ctx context.Context, reportID int64) (*models.FeedbackMetrics, error)
	List(ctx context.Context, limit, offset int) ([]*models.FeedbackMetrics, error)
}
