// Package feedback stores the responses users leave through feedback links.
package feedback

import (
	"context"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

type Repository interface {
	// Create stores a response. A second response for the same token yields
	// common.ErrConflict.
	Create(ctx context.Context, r *models.FeedbackResponse) (*models.FeedbackResponse, error)
	ListByReport(ctx context.Context, reportID int64) ([]*models.FeedbackResponse, error)
}
