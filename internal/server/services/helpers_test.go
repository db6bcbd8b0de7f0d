package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/memory"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/tokens"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []events.FeedbackRequestNotice
	err     error
}

func (f *fakeNotifier) NotifyFeedbackRequest(_ context.Context, n events.FeedbackRequestNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, n)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(_ context.Context, subject string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

type fixture struct {
	store     *memory.Store
	clock     *fakeClock
	notifier  *fakeNotifier
	publisher *fakePublisher
	svc       *Services
	owner     models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith builds services over a fresh memory store. wrap, if set,
// replaces the repository manager handed to the services.
func newFixtureWith(t *testing.T, wrap func(*memory.Store) Deps) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	f := &fixture{
		store:     memory.NewStore(),
		clock:     &fakeClock{now: t0},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
	}

	d := Deps{Tx: f.store, Repos: f.store}
	if wrap != nil {
		d = wrap(f.store)
	}
	d.Config = cfg
	d.Metrics = telemetry.NewMetrics()
	d.Notifier = f.notifier
	d.Publisher = f.publisher
	d.Now = f.clock.Now

	f.svc = New(d)
	f.owner = f.store.AddUser(models.User{Email: "victim@hive.example", FullName: "Vic Tim"})
	return f
}

func (f *fixture) report(status string) models.Report {
	return f.store.AddReport(models.Report{UserID: f.owner.ID, Title: "Phishing SMS", Status: status})
}

func (f *fixture) liveTokens(reportID int64) int {
	n := 0
	for _, tok := range f.store.TokensFor(reportID, f.owner.ID) {
		if tok.Live(f.clock.Now()) {
			n++
		}
	}
	return n
}

// conflictOnce makes the first token insert fail as if a concurrent issue
// had won the unique index.
type conflictOnce struct {
	*memory.Store
	fired atomic.Bool
}

func (c *conflictOnce) FeedbackTokens(db dbx.DBTX) tokens.Repository {
	return &conflictOnceTokens{Repository: c.Store.FeedbackTokens(db), parent: c}
}

type conflictOnceTokens struct {
	tokens.Repository
	parent *conflictOnce
}

func (c *conflictOnceTokens) Create(ctx context.Context, t *models.FeedbackToken) error {
	if c.parent.fired.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: simulated concurrent issue", common.ErrConflict)
	}
	return c.Repository.Create(ctx, t)
}

var errBoom = errors.New("boom")
