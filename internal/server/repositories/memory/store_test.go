package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repomanager.RepositoryManager = (*Store)(nil)
	_ dbx.Transactor                = (*Store)(nil)
)

func seed(t *testing.T) (*Store, models.User, models.Report) {
	t.Helper()
	s := NewStore()
	u := s.AddUser(models.User{Email: "victim@example.com"})
	r := s.AddReport(models.Report{UserID: u.ID, Title: "Fake shop", Status: models.StatusResolved})
	return s, u, r
}

func TestTokens_OneLivePerPair(t *testing.T) {
	s, u, r := seed(t)
	ctx := context.Background()
	repo := s.FeedbackTokens(nil)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.FeedbackToken{ID: "a", ReportID: r.ID, UserID: u.ID, TokenHash: "ha", ExpiresAt: now.Add(time.Hour)}))
	err := repo.Create(ctx, &models.FeedbackToken{ID: "b", ReportID: r.ID, UserID: u.ID, TokenHash: "hb", ExpiresAt: now.Add(time.Hour)})
	assert.ErrorIs(t, err, common.ErrConflict)

	n, err := repo.RevokeLive(ctx, r.ID, u.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Create(ctx, &models.FeedbackToken{ID: "b", ReportID: r.ID, UserID: u.ID, TokenHash: "hb", ExpiresAt: now.Add(time.Hour)}))
	assert.Len(t, s.TokensFor(r.ID, u.ID), 2)
}

func TestTokens_FindMarkUsedDeactivate(t *testing.T) {
	s, u, r := seed(t)
	ctx := context.Background()
	repo := s.FeedbackTokens(nil)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.FeedbackToken{ID: "a", ReportID: r.ID, UserID: u.ID, TokenHash: "ha", ExpiresAt: now.Add(-time.Minute)}))

	got, err := repo.FindActiveByHash(ctx, "ha")
	require.NoError(t, err)
	assert.Equal(t, "Fake shop", got.ReportTitle)
	assert.Equal(t, "victim@example.com", got.UserEmail)

	changed, err := repo.MarkUsed(ctx, "ha", now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.MarkUsed(ctx, "ha", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	tok, ok := s.Token("a")
	require.True(t, ok)
	assert.True(t, tok.UsedAt.Equal(now))

	n, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = repo.FindActiveByHash(ctx, "ha")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMetrics_StampOnce(t *testing.T) {
	s, _, r := seed(t)
	ctx := context.Background()
	repo := s.FeedbackMetrics(nil)
	gen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Init(ctx, r.ID, gen))

	changed, err := repo.Stamp(ctx, r.ID, models.FieldLinkClicked, gen.Add(5*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Stamp(ctx, r.ID, models.FieldLinkClicked, gen.Add(50*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	m, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, m.TimeToClickHours)
	assert.Equal(t, 5, *m.TimeToClickHours)

	_, err = repo.Stamp(ctx, r.ID, "time_to_click_hours", gen)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	// re-issue resets the funnel
	require.NoError(t, repo.Init(ctx, r.ID, gen.Add(100*time.Hour)))
	m, err = repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, m.LinkClickedAt)
	assert.Nil(t, m.TimeToClickHours)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s, u, r := seed(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, s.Reports(tx).UpdateStatus(ctx, r.ID, models.StatusClosed, time.Now()))
		require.NoError(t, s.FeedbackTokens(tx).Create(ctx, &models.FeedbackToken{ID: "a", ReportID: r.ID, UserID: u.ID, TokenHash: "ha"}))
		return errors.New("boom")
	})
	require.Error(t, err)

	rep, err := s.Reports(nil).Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, rep.Status)
	assert.Empty(t, s.TokensFor(r.ID, u.ID))
}

func TestInTx_RollsBackOnPanic(t *testing.T) {
	s, _, r := seed(t)
	ctx := context.Background()

	require.Panics(t, func() {
		_ = s.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			_ = s.Reports(tx).UpdateStatus(ctx, r.ID, models.StatusClosed, time.Now())
			panic("kaput")
		})
	})

	rep, err := s.Reports(nil).Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, rep.Status)
}

func TestUsersAndFeedback(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Users(nil).Create(ctx, &models.User{Email: "a@hive.example", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = s.Users(nil).Create(ctx, &models.User{Email: "a@hive.example"})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = s.Feedback(nil).Create(ctx, &models.FeedbackResponse{ReportID: 1, TokenID: "t"})
	require.NoError(t, err)
	_, err = s.Feedback(nil).Create(ctx, &models.FeedbackResponse{ReportID: 1, TokenID: "t"})
	assert.ErrorIs(t, err, common.ErrConflict)

	list, err := s.Feedback(nil).ListByReport(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
