package services

import (
	"context"
	"fmt"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

// FeedbackMetricsService records the feedback funnel of each report.
type FeedbackMetricsService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	metrics     *telemetry.Metrics
	now         func() time.Time
}

func NewFeedbackMetricsService(d Deps) *FeedbackMetricsService {
	d = d.withDefaults()
	return &FeedbackMetricsService{
		tx:          d.Tx,
		repomanager: d.Repos,
		metrics:     d.Metrics,
		now:         d.Now,
	}
}

// Stamp records the current time in field unless it is already set, and
// reports whether anything changed. Fields outside the allow-list yield
// common.ErrInvalidArgument before any storage access.
func (s *FeedbackMetricsService) Stamp(ctx context.Context, reportID int64, field models.MetricField) (bool, error) {
	if !field.Valid() {
		return false, fmt.Errorf("%w: metric field %q", common.ErrInvalidArgument, field)
	}

	changed, err := s.repomanager.FeedbackMetrics(s.tx.Conn()).Stamp(ctx, reportID, field, s.now())
	if err != nil {
		return false, err
	}
	if changed {
		s.metrics.MetricStamped(string(field))
	}
	return changed, nil
}

func (s *FeedbackMetricsService) Get(ctx context.Context, reportID int64) (*models.FeedbackMetrics, error) {
	return s.repomanager.FeedbackMetrics(s.tx.Conn()).Get(ctx, reportID)
}

// List pages through metrics rows ordered by report id. A non-positive
// limit returns everything from offset on.
func (s *FeedbackMetricsService) List(ctx context.Context, limit, offset int) ([]*models.FeedbackMetrics, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", common.ErrInvalidArgument)
	}
	return s.repomanager.FeedbackMetrics(s.tx.Conn()).List(ctx, limit, offset)
}
