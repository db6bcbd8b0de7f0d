package feedback

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+feedback_responses\s*\(report_id,\s*user_id,\s*token_id,\s*rating,\s*comments,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs(int64(3), int64(7), "tok-1", 5, "quick response", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	got, err := repo.Create(context.Background(), &models.FeedbackResponse{
		ReportID: 3, UserID: 7, TokenID: "tok-1", Rating: 5, Comments: "quick response", CreatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.ID)
}

func TestCreate_DuplicateIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.FeedbackResponse{ReportID: 3})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.FeedbackResponse{ReportID: 3})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "db error")
}

func TestListByReport(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+feedback_responses\s+WHERE\s+report_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at$`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "user_id", "token_id", "rating", "comments", "created_at"}).
			AddRow(int64(12), int64(3), int64(7), "tok-1", 4, "ok", at))

	out, err := repo.ListByReport(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].Rating)
}
