package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.FeedbackToken) error {
	query := `
		INSERT INTO feedback_tokens (id, report_id, user_id, token_hash, created_at, expires_at, is_active, issuer_ip, issuer_user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		t.ID, t.ReportID, t.UserID, t.TokenHash, t.CreatedAt, t.ExpiresAt, t.IssuerIP, t.IssuerUserAgent); err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: live feedback token exists for report %d", common.ErrConflict, t.ReportID)
		}
		return fmt.Errorf("db error: %w", err)
	}
	t.IsActive = true
	return nil
}

func (r *PostgresRepository) RevokeLive(ctx context.Context, reportID, userID int64, at time.Time) (int64, error) {
	query := `
		UPDATE feedback_tokens
		SET revoked_at = $3
		WHERE report_id = $1 AND user_id = $2 AND is_active AND used_at IS NULL AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, reportID, userID, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) FindActiveByHash(ctx context.Context, hash string) (*models.FeedbackToken, error) {
	query := `
		SELECT t.id, t.report_id, t.user_id, t.token_hash, t.created_at, t.expires_at, t.used_at, t.revoked_at, t.is_active,
		       r.title, u.email
		FROM feedback_tokens t
		JOIN reports r ON r.id = t.report_id
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1 AND t.is_active
	`
	t := &models.FeedbackToken{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&t.ID, &t.ReportID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt, &t.RevokedAt, &t.IsActive,
		&t.ReportTitle, &t.UserEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, hash string, at time.Time) (bool, error) {
	query := `
		UPDATE feedback_tokens
		SET used_at = $2
		WHERE token_hash = $1 AND is_active AND used_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, hash, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE feedback_tokens
		SET is_active = FALSE
		WHERE is_active AND expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
