package reports

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

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Report, error) {
	return r.get(ctx, `
		SELECT id, user_id, title, status, created_at, updated_at
		FROM reports
		WHERE id = $1
	`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id int64) (*models.Report, error) {
	return r.get(ctx, `
		SELECT id, user_id, title, status, created_at, updated_at
		FROM reports
		WHERE id = $1
		FOR UPDATE
	`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, id int64) (*models.Report, error) {
	rep := &models.Report{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rep.ID, &rep.UserID, &rep.Title, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rep, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error {
	query := `
		UPDATE reports
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) AppendStatusEvent(ctx context.Context, e *models.StatusChangeEvent) (*models.StatusChangeEvent, error) {
	query := `
		INSERT INTO status_change_events (report_id, from_status, to_status, actor_id, notes, at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, e.ReportID, e.FromStatus, e.ToStatus, e.ActorID, e.Notes, e.At).Scan(&e.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListStatusEvents(ctx context.Context, reportID int64) ([]*models.StatusChangeEvent, error) {
	query := `
		SELECT id, report_id, from_status, to_status, actor_id, notes, at
		FROM status_change_events
		WHERE report_id = $1
		ORDER BY at, id
	`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.StatusChangeEvent
	for rows.Next() {
		e := &models.StatusChangeEvent{}
		if err := rows.Scan(&e.ID, &e.ReportID, &e.FromStatus, &e.ToStatus, &e.ActorID, &e.Notes, &e.At); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
