package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
)

const (
	MinRating = 1
	MaxRating = 5

	maxCommentsLength = 4000
)

// FeedbackService accepts feedback submitted through a feedback link.
type FeedbackService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *FeedbackTokenService
	stamps      *FeedbackMetricsService
	publisher   events.Publisher
	logger      logging.Logger
	now         func() time.Time
}

func NewFeedbackService(d Deps, tokens *FeedbackTokenService, stamps *FeedbackMetricsService) *FeedbackService {
	d = d.withDefaults()
	return &FeedbackService{
		tx:          d.Tx,
		repomanager: d.Repos,
		tokens:      tokens,
		stamps:      stamps,
		publisher:   d.Publisher,
		logger:      d.Logger.With("module", "feedback"),
		now:         d.Now,
	}
}

// Submit stores the feedback for the token's report and consumes the token.
// The response is persisted before the token is marked used, so a failed
// write leaves the link usable.
func (s *FeedbackService) Submit(ctx context.Context, secret string, rating int, comments string) (*models.FeedbackResponse, error) {
	desc, err := s.tokens.Validate(ctx, secret)
	if err != nil {
		return nil, err
	}

	if _, err := s.stamps.Stamp(ctx, desc.ReportID, models.FieldFeedbackStarted); err != nil {
		s.logger.Warn(ctx, "stamp feedback started", "report_id", desc.ReportID, "error", err)
	}

	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", common.ErrInvalidArgument, MinRating, MaxRating)
	}
	comments = strings.TrimSpace(comments)
	if len(comments) > maxCommentsLength {
		return nil, fmt.Errorf("%w: comments too long", common.ErrInvalidArgument)
	}

	resp, err := s.repomanager.Feedback(s.tx.Conn()).Create(ctx, &models.FeedbackResponse{
		ReportID:  desc.ReportID,
		UserID:    desc.UserID,
		TokenID:   desc.TokenID,
		Rating:    rating,
		Comments:  comments,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if err := s.tokens.MarkUsed(ctx, secret); err != nil {
		return nil, err
	}

	if _, err := s.stamps.Stamp(ctx, desc.ReportID, models.FieldFeedbackCompleted); err != nil {
		s.logger.Warn(ctx, "stamp feedback completed", "report_id", desc.ReportID, "error", err)
	}

	s.logger.Info(ctx, "feedback received", "report_id", desc.ReportID, "rating", rating)
	if err := s.publisher.Publish(ctx, events.SubjectFeedbackCompleted, events.FeedbackCompleted{
		ReportID: desc.ReportID,
		TokenID:  desc.TokenID,
		Rating:   rating,
		At:       resp.CreatedAt,
	}); err != nil {
		s.logger.Warn(ctx, "publish feedback completed event", "error", err)
	}

	return resp, nil
}

// List returns the feedback left for a report.
func (s *FeedbackService) List(ctx context.Context, reportID int64) ([]*models.FeedbackResponse, error) {
	if _, err := s.repomanager.Reports(s.tx.Conn()).Get(ctx, reportID); err != nil {
		return nil, err
	}
	return s.repomanager.Feedback(s.tx.Conn()).ListByReport(ctx, reportID)
}
