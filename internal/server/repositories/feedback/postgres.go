package feedback

import (
	"context"
	"fmt"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, fr *models.FeedbackResponse) (*models.FeedbackResponse, error) {
	query := `
		INSERT INTO feedback_responses (report_id, user_id, token_id, rating, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, fr.ReportID, fr.UserID, fr.TokenID, fr.Rating, fr.Comments, fr.CreatedAt).Scan(&fr.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: feedback already recorded", common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) ListByReport(ctx context.Context, reportID int64) ([]*models.FeedbackResponse, error) {
	query := `
		SELECT id, report_id, user_id, token_id, rating, comments, created_at
		FROM feedback_responses
		WHERE report_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.FeedbackResponse
	for rows.Next() {
		fr := &models.FeedbackResponse{}
		if err := rows.Scan(&fr.ID, &fr.ReportID, &fr.UserID, &fr.TokenID, &fr.Rating, &fr.Comments, &fr.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
