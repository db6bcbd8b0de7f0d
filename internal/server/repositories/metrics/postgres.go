package metrics

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const hoursSinceGenerated = `trunc(extract(epoch FROM ($2::timestamptz - token_generated_at)) / 3600)::int`

// stampQuery returns the fixed statement for field. Column names are never
// built from input.
func stampQuery(field models.MetricField) (string, error) {
	switch field {
	case models.FieldTokenSent:
		return `UPDATE feedback_metrics SET token_sent_at = $2
			WHERE report_id = $1 AND token_sent_at IS NULL`, nil
	case models.FieldLinkClicked:
		return `UPDATE feedback_metrics SET link_clicked_at = $2, time_to_click_hours = ` + hoursSinceGenerated + `
			WHERE report_id = $1 AND link_clicked_at IS NULL`, nil
	case models.FieldFeedbackStarted:
		return `UPDATE feedback_metrics SET feedback_started_at = $2
			WHERE report_id = $1 AND feedback_started_at IS NULL`, nil
	case models.FieldFeedbackCompleted:
		return `UPDATE feedback_metrics SET feedback_completed_at = $2, time_to_complete_hours = ` + hoursSinceGenerated + `
			WHERE report_id = $1 AND feedback_completed_at IS NULL`, nil
	default:
		return "", fmt.Errorf("%w: metric field %q", common.ErrInvalidArgument, field)
	}
}

func (r *PostgresRepository) Init(ctx context.Context, reportID int64, at time.Time) error {
	query := `
		INSERT INTO feedback_metrics (report_id, token_generated_at)
		VALUES ($1, $2)
		ON CONFLICT (report_id) DO UPDATE SET
			token_generated_at = EXCLUDED.token_generated_at,
			token_sent_at = NULL,
			link_clicked_at = NULL,
			feedback_started_at = NULL,
			feedback_completed_at = NULL,
			time_to_click_hours = NULL,
			time_to_complete_hours = NULL
	`
	if _, err := r.db.ExecContext(ctx, query, reportID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Stamp(ctx context.Context, reportID int64, field models.MetricField, at time.Time) (bool, error) {
	query, err := stampQuery(field)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, reportID, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

const selectColumns = `report_id, token_generated_at, token_sent_at, link_clicked_at, feedback_started_at,
		       feedback_completed_at, time_to_click_hours, time_to_complete_hours`

type scanner interface {
	Scan(dest ...any) error
}

func scanMetrics(s scanner) (*models.FeedbackMetrics, error) {
	m := &models.FeedbackMetrics{}
	err := s.Scan(&m.ReportID, &m.TokenGeneratedAt, &m.TokenSentAt, &m.LinkClickedAt, &m.FeedbackStartedAt,
		&m.FeedbackCompletedAt, &m.TimeToClickHours, &m.TimeToCompleteHours)
	return m, err
}

func (r *PostgresRepository) Get(ctx context.Context, reportID int64) (*models.FeedbackMetrics, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM feedback_metrics
		WHERE report_id = $1
	`
	m, err := scanMetrics(r.db.QueryRowContext(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.FeedbackMetrics, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM feedback_metrics
		ORDER BY report_id
		LIMIT $1 OFFSET $2
	`
	// LIMIT NULL is no limit
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.db.QueryContext(ctx, query, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.FeedbackMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
