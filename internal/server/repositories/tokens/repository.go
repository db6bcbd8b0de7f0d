// Package tokens declares the storage contract for feedback tokens and its
// PostgreSQL implementation.
package tokens

import (
	"context"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

// Repository persists feedback tokens. Secrets never reach it; lookups are
// by hash.
type Repository interface {
	// Create inserts a new active token. A second live token for the same
	// (report, user) pair violates the storage invariant and yields
	// common.ErrConflict.
	Create(ctx context.Context, token *models.FeedbackToken) error

	// RevokeLive marks every live token of the pair as revoked at the given
	// time and returns how many were revoked.
	RevokeLive(ctx context.Context, reportID, userID int64, at time.Time) (int64, error)

	// FindActiveByHash returns the active token with the given hash, joined
	// with its report title and owner email. Expiry, use and revocation are
	// not filtered here; the caller decides. Returns common.ErrorNotFound
	// when absent.
	FindActiveByHash(ctx context.Context, hash string) (*models.FeedbackToken, error)

	// MarkUsed stamps used_at on the active, unused token with the given
	// hash. It reports whether a row changed; an already used or unknown
	// token is not an error.
	MarkUsed(ctx context.Context, hash string, at time.Time) (bool, error)

	// DeactivateExpired clears is_active on every active token that expired
	// before now and returns the number of rows affected.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
