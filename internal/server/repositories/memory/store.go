// Package memory is an in-memory RepositoryManager with the same semantics
// as the PostgreSQL one, including the one-live-token-per-pair rule. It
// backs service and handler tests.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/feedback"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/metrics"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/reports"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/tokens"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/users"
)

// Store holds all tables. The zero value is not usable; call NewStore.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextUserID     int64
	nextReportID   int64
	nextEventID    int64
	nextResponseID int64

	users     map[int64]models.User
	reports   map[int64]models.Report
	tokens    map[string]models.FeedbackToken
	metrics   map[int64]models.FeedbackMetrics
	events    []models.StatusChangeEvent
	responses []models.FeedbackResponse
}

func NewStore() *Store {
	return &Store{
		users:   map[int64]models.User{},
		reports: map[int64]models.Report{},
		tokens:  map[string]models.FeedbackToken{},
		metrics: map[int64]models.FeedbackMetrics{},
	}
}

type snapshot struct {
	nextUserID, nextReportID, nextEventID, nextResponseID int64

	users     map[int64]models.User
	reports   map[int64]models.Report
	tokens    map[string]models.FeedbackToken
	metrics   map[int64]models.FeedbackMetrics
	events    []models.StatusChangeEvent
	responses []models.FeedbackResponse
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		nextUserID:     s.nextUserID,
		nextReportID:   s.nextReportID,
		nextEventID:    s.nextEventID,
		nextResponseID: s.nextResponseID,
		users:          copyMap(s.users),
		reports:        copyMap(s.reports),
		tokens:         copyMap(s.tokens),
		metrics:        copyMap(s.metrics),
		events:         append([]models.StatusChangeEvent(nil), s.events...),
		responses:      append([]models.FeedbackResponse(nil), s.responses...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID, s.nextReportID, s.nextEventID, s.nextResponseID =
		snap.nextUserID, snap.nextReportID, snap.nextEventID, snap.nextResponseID
	s.users = snap.users
	s.reports = snap.reports
	s.tokens = snap.tokens
	s.metrics = snap.metrics
	s.events = snap.events
	s.responses = snap.responses
}

// Conn implements dbx.Transactor. Memory repositories ignore the handle.
func (s *Store) Conn() dbx.DBTX { return nil }

// InTx implements dbx.Transactor. Transactions are serialised; on error or
// panic every change made by fn is rolled back.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	err = fn(ctx, nil)
	return err
}

// RunMigrations is a no-op.
func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository             { return &userRepo{s: s} }
func (s *Store) Reports(dbx.DBTX) reports.Repository         { return &reportRepo{s: s} }
func (s *Store) FeedbackTokens(dbx.DBTX) tokens.Repository   { return &tokenRepo{s: s} }
func (s *Store) FeedbackMetrics(dbx.DBTX) metrics.Repository { return &metricsRepo{s: s} }
func (s *Store) Feedback(dbx.DBTX) feedback.Repository       { return &feedbackRepo{s: s} }

// AddUser seeds a user and returns it with its id.
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	s.users[u.ID] = u
	return u
}

// AddReport seeds a report and returns it with its id.
func (s *Store) AddReport(r models.Report) models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReportID++
	r.ID = s.nextReportID
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	s.reports[r.ID] = r
	return r
}

// TokensFor returns copies of every token issued for the pair.
func (s *Store) TokensFor(reportID, userID int64) []models.FeedbackToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FeedbackToken
	for _, t := range s.tokens {
		if t.ReportID == reportID && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// Token returns a copy of the token with the given id.
func (s *Store) Token(id string) (models.FeedbackToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	return t, ok
}
