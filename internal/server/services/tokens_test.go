package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/cryptox"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_RequiresResolvedStatus(t *testing.T) {
	f := newFixture(t)
	rep := f.report(models.StatusUnderReview)

	_, err := f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
	assert.ErrorIs(t, err, common.ErrInvalidState)
	assert.Empty(t, f.store.TokensFor(rep.ID, f.owner.ID))

	_, err = f.svc.Metrics.Get(context.Background(), rep.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIssue_ReportMustBelongToUser(t *testing.T) {
	f := newFixture(t)
	rep := f.report(models.StatusResolved)
	other := f.store.AddUser(models.User{Email: "other@hive.example"})

	_, err := f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: rep.ID, UserID: other.ID})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: 999, UserID: f.owner.ID})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIssue_ResolvedReport(t *testing.T) {
	f := newFixture(t)
	// the owner ends up with id 7
	for i := 0; i < 5; i++ {
		f.store.AddUser(models.User{Email: strings.Repeat("x", i+1) + "@hive.example"})
	}
	owner := f.store.AddUser(models.User{Email: "seven@hive.example"})
	require.Equal(t, int64(7), owner.ID)
	rep := f.store.AddReport(models.Report{UserID: owner.ID, Title: "Card fraud", Status: models.StatusResolved})

	issued, err := f.svc.Tokens.Issue(context.Background(), IssueRequest{
		ReportID:        rep.ID,
		UserID:          owner.ID,
		IssuerIP:        "10.0.0.1",
		IssuerUserAgent: "test-agent",
	})
	require.NoError(t, err)

	assert.Len(t, issued.Secret, 64)
	assert.True(t, common.IsHex(issued.Secret, 64))
	assert.Equal(t, t0.Add(168*time.Hour), issued.ExpiresAt)
	assert.Equal(t, "http://localhost:8080/feedback/?token="+issued.Secret, issued.FeedbackURL)

	stored, ok := f.store.Token(issued.ID)
	require.True(t, ok)
	assert.Equal(t, cryptox.HashToken(issued.Secret), stored.TokenHash)
	assert.NotEqual(t, issued.Secret, stored.TokenHash)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "10.0.0.1", stored.IssuerIP)
	assert.Equal(t, "test-agent", stored.IssuerUserAgent)

	m, err := f.svc.Metrics.Get(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Equal(t, t0, m.TokenGeneratedAt)
	assert.Nil(t, m.TokenSentAt)

	assert.Contains(t, f.publisher.subjects, events.SubjectTokenIssued)
}

func TestIssue_CustomExpiry(t *testing.T) {
	f := newFixture(t)
	rep := f.report(models.StatusResolved)

	issued, err := f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: rep.ID, UserID: f.owner.ID, ExpiryHours: 2})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(2*time.Hour), issued.ExpiresAt)

	issued, err = f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: rep.ID, UserID: f.owner.ID, ExpiryHours: -5})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(168*time.Hour), issued.ExpiresAt)
}

func TestIssue_ReissueRevokesPreviousAndResetsMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.report(models.StatusResolved)

	first, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
	require.NoError(t, err)
	_, err = f.svc.Tokens.Validate(ctx, first.Secret)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
	require.NoError(t, err)

	_, err = f.svc.Tokens.Validate(ctx, first.Secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.Equal(t, 1, f.liveTokens(rep.ID))
	assert.Len(t, f.store.TokensFor(rep.ID, f.owner.ID), 2)

	m, err := f.svc.Metrics.Get(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), m.TokenGeneratedAt)
	assert.Nil(t, m.LinkClickedAt)

	_, err = f.svc.Tokens.Validate(ctx, second.Secret)
	assert.NoError(t, err)
}

func TestIssue_ConcurrentCallsLeaveOneLiveToken(t *testing.T) {
	f := newFixture(t)
	rep := f.report(models.StatusResolved)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.liveTokens(rep.ID))
	assert.Len(t, f.store.TokensFor(rep.ID, f.owner.ID), n)
}

func TestIssue_RetriesOnceOnConflict(t *testing.T) {
	var wrapper *conflictOnce
	f := newFixtureWith(t, func(s *memory.Store) Deps {
		wrapper = &conflictOnce{Store: s}
		return Deps{Tx: s, Repos: wrapper}
	})
	rep := f.report(models.StatusResolved)

	issued, err := f.svc.Tokens.Issue(context.Background(), IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
	require.NoError(t, err)
	assert.True(t, wrapper.fired.Load())
	assert.Equal(t, 1, f.liveTokens(rep.ID))

	_, err = f.svc.Tokens.Validate(context.Background(), issued.Secret)
	assert.NoError(t, err)
}

func TestValidate_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.report(models.StatusResolved)

	issued, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
	require.NoError(t, err)

	desc, err := f.svc.Tokens.Validate(ctx, issued.Secret)
	require.NoError(t, err)
	assert.Equal(t, models.TokenDescriptor{
		TokenID:     issued.ID,
		ReportID:    rep.ID,
		UserID:      f.owner.ID,
		ReportTitle: "Phishing SMS",
		UserEmail:   "victim@hive.example",
	}, *desc)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Tokens.MarkUsed(ctx, issued.Secret))
	_, err = f.svc.Tokens.Validate(ctx, issued.Secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	stored, _ := f.store.Token(issued.ID)
	require.NotNil(t, stored.UsedAt)
	firstUse := *stored.UsedAt

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.Tokens.MarkUsed(ctx, issued.Secret))
	stored, _ = f.store.Token(issued.ID)
	assert.Equal(t, firstUse, *stored.UsedAt)
}

func TestValidate_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.report(models.StatusResolved)

	issued, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: rep.ID, UserID: f.owner.ID, ExpiryHours: 1})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Tokens.Validate(ctx, issued.Secret)
	require.NoError(t, err, "still valid at the expiry instant")

	f.clock.Advance(time.Second)
	_, err = f.svc.Tokens.Validate(ctx, issued.Secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	n, err := f.svc.Tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestValidate_UnknownAndMalformed(t *testing.T) {
	f := newFixture(t)

	for _, secret := range []string{
		strings.Repeat("deadbeef", 8),
		"deadbeef",
		"",
		strings.Repeat("zz", 32),
		"' OR 1=1 --",
	} {
		_, err := f.svc.Tokens.Validate(context.Background(), secret)
		assert.ErrorIs(t, err, common.ErrInvalidToken, secret)
	}
}

func TestMarkUsed_UnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Tokens.MarkUsed(context.Background(), strings.Repeat("ab", 32)))
	assert.NoError(t, f.svc.Tokens.MarkUsed(context.Background(), "short"))
}

func TestValidate_StampsFirstClickOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.report(models.StatusResolved)

	issued, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: rep.ID, UserID: f.owner.ID})
	require.NoError(t, err)

	f.clock.Advance(3*time.Hour + 30*time.Minute)
	_, err = f.svc.Tokens.Validate(ctx, issued.Secret)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Tokens.Validate(ctx, issued.Secret)
	require.NoError(t, err)

	m, err := f.svc.Metrics.Get(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, m.LinkClickedAt)
	assert.Equal(t, t0.Add(3*time.Hour+30*time.Minute), *m.LinkClickedAt)
	require.NotNil(t, m.TimeToClickHours)
	assert.Equal(t, 3, *m.TimeToClickHours)
}

func TestCleanupExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.report(models.StatusResolved)
	b := f.report(models.StatusResolved)
	c := f.report(models.StatusResolved)
	for _, rep := range []models.Report{a, b} {
		_, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: rep.ID, UserID: f.owner.ID, ExpiryHours: 1})
		require.NoError(t, err)
	}
	_, err := f.svc.Tokens.Issue(ctx, IssueRequest{ReportID: c.ID, UserID: f.owner.ID})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	n, err := f.svc.Tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.svc.Tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.Len(t, f.store.TokensFor(a.ID, f.owner.ID), 1)
	assert.Equal(t, 1, f.liveTokens(c.ID))
}
