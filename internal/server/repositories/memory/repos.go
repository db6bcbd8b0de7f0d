package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("%w: email %s", common.ErrConflict, u.Email)
		}
	}
	r.s.nextUserID++
	u.ID = r.s.nextUserID
	u.CreatedAt = time.Now()
	r.s.users[u.ID] = *u
	return u, nil
}

func (r *userRepo) Get(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type reportRepo struct{ s *Store }

func (r *reportRepo) Get(_ context.Context, id int64) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rep, nil
}

func (r *reportRepo) GetForUpdate(ctx context.Context, id int64) (*models.Report, error) {
	return r.Get(ctx, id)
}

func (r *reportRepo) UpdateStatus(_ context.Context, id int64, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return common.ErrorNotFound
	}
	rep.Status = status
	rep.UpdatedAt = at
	r.s.reports[id] = rep
	return nil
}

func (r *reportRepo) AppendStatusEvent(_ context.Context, e *models.StatusChangeEvent) (*models.StatusChangeEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextEventID++
	e.ID = r.s.nextEventID
	r.s.events = append(r.s.events, *e)
	return e, nil
}

func (r *reportRepo) ListStatusEvents(_ context.Context, reportID int64) ([]*models.StatusChangeEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.StatusChangeEvent
	for _, e := range r.s.events {
		if e.ReportID == reportID {
			e := e
			out = append(out, &e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ID < out[j].ID
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

type tokenRepo struct{ s *Store }

func liveRow(t models.FeedbackToken) bool {
	return t.IsActive && t.UsedAt == nil && t.RevokedAt == nil
}

func (r *tokenRepo) Create(_ context.Context, t *models.FeedbackToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tokens {
		if existing.TokenHash == t.TokenHash || existing.ID == t.ID {
			return fmt.Errorf("%w: duplicate feedback token", common.ErrConflict)
		}
		if existing.ReportID == t.ReportID && existing.UserID == t.UserID && liveRow(existing) {
			return fmt.Errorf("%w: live feedback token exists for report %d", common.ErrConflict, t.ReportID)
		}
	}
	t.IsActive = true
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *tokenRepo) RevokeLive(_ context.Context, reportID, userID int64, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.ReportID == reportID && t.UserID == userID && liveRow(t) {
			revokedAt := at
			t.RevokedAt = &revokedAt
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) FindActiveByHash(_ context.Context, hash string) (*models.FeedbackToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.TokenHash != hash || !t.IsActive {
			continue
		}
		rep, okR := r.s.reports[t.ReportID]
		u, okU := r.s.users[t.UserID]
		if !okR || !okU {
			return nil, common.ErrorNotFound
		}
		t.ReportTitle = rep.Title
		t.UserEmail = u.Email
		return &t, nil
	}
	return nil, common.ErrorNotFound
}

func (r *tokenRepo) MarkUsed(_ context.Context, hash string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.tokens {
		if t.TokenHash == hash && t.IsActive && t.UsedAt == nil {
			usedAt := at
			t.UsedAt = &usedAt
			r.s.tokens[id] = t
			return true, nil
		}
	}
	return false, nil
}

func (r *tokenRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.IsActive && t.ExpiresAt.Before(now) {
			t.IsActive = false
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

type metricsRepo struct{ s *Store }

func (r *metricsRepo) Init(_ context.Context, reportID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.metrics[reportID] = models.FeedbackMetrics{ReportID: reportID, TokenGeneratedAt: at}
	return nil
}

func (r *metricsRepo) Stamp(_ context.Context, reportID int64, field models.MetricField, at time.Time) (bool, error) {
	if !field.Valid() {
		return false, fmt.Errorf("%w: metric field %q", common.ErrInvalidArgument, field)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.metrics[reportID]
	if !ok {
		return false, nil
	}
	stamp := at
	hours := models.WholeHoursBetween(m.TokenGeneratedAt, at)
	switch field {
	case models.FieldTokenSent:
		if m.TokenSentAt != nil {
			return false, nil
		}
		m.TokenSentAt = &stamp
	case models.FieldLinkClicked:
		if m.LinkClickedAt != nil {
			return false, nil
		}
		m.LinkClickedAt = &stamp
		m.TimeToClickHours = &hours
	case models.FieldFeedbackStarted:
		if m.FeedbackStartedAt != nil {
			return false, nil
		}
		m.FeedbackStartedAt = &stamp
	case models.FieldFeedbackCompleted:
		if m.FeedbackCompletedAt != nil {
			return false, nil
		}
		m.FeedbackCompletedAt = &stamp
		m.TimeToCompleteHours = &hours
	}
	r.s.metrics[reportID] = m
	return true, nil
}

func (r *metricsRepo) Get(_ context.Context, reportID int64) (*models.FeedbackMetrics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.metrics[reportID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &m, nil
}

func (r *metricsRepo) List(_ context.Context, limit, offset int) ([]*models.FeedbackMetrics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int64, 0, len(r.s.metrics))
	for id := range r.s.metrics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*models.FeedbackMetrics
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		m := r.s.metrics[id]
		out = append(out, &m)
	}
	return out, nil
}

type feedbackRepo struct{ s *Store }

func (r *feedbackRepo) Create(_ context.Context, fr *models.FeedbackResponse) (*models.FeedbackResponse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.responses {
		if existing.TokenID == fr.TokenID {
			return nil, fmt.Errorf("%w: feedback already recorded", common.ErrConflict)
		}
	}
	r.s.nextResponseID++
	fr.ID = r.s.nextResponseID
	r.s.responses = append(r.s.responses, *fr)
	return fr, nil
}

func (r *feedbackRepo) ListByReport(_ context.Context, reportID int64) ([]*models.FeedbackResponse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.FeedbackResponse
	for _, fr := range r.s.responses {
		if fr.ReportID == reportID {
			fr := fr
			out = append(out, &fr)
		}
	}
	return out, nil
}
