// Package reports provides storage for incident reports and their status
// timeline.
package reports

import (
	"context"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*models.Report, error)
	// GetForUpdate is Get with a row lock; use it inside a transaction.
	GetForUpdate(ctx context.Context, id int64) (*models.Report, error)
	UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error

	// AppendStatusEvent adds an entry to the timeline. Entries are never
	// updated or deleted.
	AppendStatusEvent(ctx context.Context, e *models.StatusChangeEvent) (*models.StatusChangeEvent, error)
	ListStatusEvents(ctx context.Context, reportID int64) ([]*models.StatusChangeEvent, error)
}
