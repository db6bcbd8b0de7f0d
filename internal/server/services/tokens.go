package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/cryptox"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

// FeedbackPath is appended to the site URL to build feedback links.
const FeedbackPath = "/feedback/?token="

// IssueRequest asks for a feedback token for the owner of a report.
// ExpiryHours <= 0 selects the configured default lifetime.
type IssueRequest struct {
	ReportID        int64
	UserID          int64
	ExpiryHours     int
	IssuerIP        string
	IssuerUserAgent string
}

// IssuedToken is returned once, to the issuer. Secret is not stored anywhere.
type IssuedToken struct {
	ID          string
	Secret      string
	ExpiresAt   time.Time
	FeedbackURL string
}

// FeedbackTokenService issues, validates and consumes feedback tokens.
type FeedbackTokenService struct {
	tx            dbx.Transactor
	repomanager   repomanager.RepositoryManager
	stamps        *FeedbackMetricsService
	siteURL       string
	defaultExpiry time.Duration
	logger        logging.Logger
	metrics       *telemetry.Metrics
	publisher     events.Publisher
	now           func() time.Time
}

func NewFeedbackTokenService(d Deps, stamps *FeedbackMetricsService) *FeedbackTokenService {
	d = d.withDefaults()
	return &FeedbackTokenService{
		tx:            d.Tx,
		repomanager:   d.Repos,
		stamps:        stamps,
		siteURL:       strings.TrimRight(d.Config.SiteURL, "/"),
		defaultExpiry: d.Config.FeedbackTokenExpiry,
		logger:        d.Logger.With("module", "feedback_tokens"),
		metrics:       d.Metrics,
		publisher:     d.Publisher,
		now:           d.Now,
	}
}

// Issue mints a token for a resolved report owned by req.UserID. Any live
// token of the same (report, user) pair is revoked in the same transaction,
// so at most one link works at a time. A unique-index conflict caused by a
// concurrent Issue is retried once.
func (s *FeedbackTokenService) Issue(ctx context.Context, req IssueRequest) (*IssuedToken, error) {
	expiry := s.defaultExpiry
	if req.ExpiryHours > 0 {
		expiry = time.Duration(req.ExpiryHours) * time.Hour
	}

	issued, err := s.issueOnce(ctx, req, expiry)
	if errors.Is(err, common.ErrConflict) {
		s.logger.Warn(ctx, "concurrent feedback token issue, retrying",
			"report_id", req.ReportID, "user_id", req.UserID)
		issued, err = s.issueOnce(ctx, req, expiry)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.TokenIssued()
	s.logger.Info(ctx, "feedback token issued",
		"token_id", issued.ID, "report_id", req.ReportID, "user_id", req.UserID, "expires_at", issued.ExpiresAt)

	if err := s.publisher.Publish(ctx, events.SubjectTokenIssued, events.TokenIssued{
		TokenID:   issued.ID,
		ReportID:  req.ReportID,
		UserID:    req.UserID,
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		s.logger.Warn(ctx, "publish token issued event", "error", err)
	}

	return issued, nil
}

func (s *FeedbackTokenService) issueOnce(ctx context.Context, req IssueRequest, expiry time.Duration) (*IssuedToken, error) {
	var issued *IssuedToken

	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		report, err := s.repomanager.Reports(tx).GetForUpdate(ctx, req.ReportID)
		if err != nil {
			return err
		}
		if report.UserID != req.UserID {
			return fmt.Errorf("%w: report %d of user %d", common.ErrorNotFound, req.ReportID, req.UserID)
		}
		if report.Status != common.ReportStatusResolved {
			return fmt.Errorf("%w: report %d is %q", common.ErrInvalidState, req.ReportID, report.Status)
		}

		secret, err := cryptox.GenerateToken()
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		now := s.now()
		tokens := s.repomanager.FeedbackTokens(tx)

		revoked, err := tokens.RevokeLive(ctx, req.ReportID, req.UserID, now)
		if err != nil {
			return err
		}
		if revoked > 0 {
			s.logger.Info(ctx, "previous feedback tokens revoked", "report_id", req.ReportID, "count", revoked)
		}

		t := &models.FeedbackToken{
			ID:              uuid.NewString(),
			ReportID:        req.ReportID,
			UserID:          req.UserID,
			TokenHash:       cryptox.HashToken(secret),
			CreatedAt:       now,
			ExpiresAt:       now.Add(expiry),
			IsActive:        true,
			IssuerIP:        req.IssuerIP,
			IssuerUserAgent: req.IssuerUserAgent,
		}
		if err := tokens.Create(ctx, t); err != nil {
			return err
		}

		if err := s.repomanager.FeedbackMetrics(tx).Init(ctx, req.ReportID, now); err != nil {
			return err
		}

		issued = &IssuedToken{
			ID:          t.ID,
			Secret:      secret,
			ExpiresAt:   t.ExpiresAt,
			FeedbackURL: s.siteURL + FeedbackPath + secret,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issued, nil
}

// Validate resolves a presented secret to the report and user it was issued
// for. Unknown, malformed, expired, used and revoked tokens all yield
// common.ErrInvalidToken. The first successful validation stamps the link
// click.
func (s *FeedbackTokenService) Validate(ctx context.Context, secret string) (*models.TokenDescriptor, error) {
	t, err := s.lookup(ctx, secret)
	if err != nil {
		return nil, err
	}

	if _, err := s.stamps.Stamp(ctx, t.ReportID, models.FieldLinkClicked); err != nil {
		s.logger.Warn(ctx, "stamp link click", "report_id", t.ReportID, "error", err)
	}

	return &models.TokenDescriptor{
		TokenID:     t.ID,
		ReportID:    t.ReportID,
		UserID:      t.UserID,
		ReportTitle: t.ReportTitle,
		UserEmail:   t.UserEmail,
	}, nil
}

func (s *FeedbackTokenService) lookup(ctx context.Context, secret string) (*models.FeedbackToken, error) {
	if !cryptox.WellFormedToken(secret) {
		s.metrics.TokenValidated("malformed")
		return nil, common.ErrInvalidToken
	}

	t, err := s.repomanager.FeedbackTokens(s.tx.Conn()).FindActiveByHash(ctx, cryptox.HashToken(secret))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.TokenValidated("unknown")
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	now := s.now()
	if !t.Live(now) {
		reason := deadReason(t, now)
		s.metrics.TokenValidated(reason)
		s.logger.Debug(ctx, "feedback token rejected", "token_id", t.ID, "reason", reason)
		return nil, common.ErrInvalidToken
	}

	s.metrics.TokenValidated("ok")
	return t, nil
}

func deadReason(t *models.FeedbackToken, now time.Time) string {
	switch {
	case t.UsedAt != nil:
		return "used"
	case t.RevokedAt != nil:
		return "revoked"
	case now.After(t.ExpiresAt):
		return "expired"
	default:
		return "inactive"
	}
}

// MarkUsed consumes the token. Only the first call has an effect; later
// calls and unknown tokens are silently ignored.
func (s *FeedbackTokenService) MarkUsed(ctx context.Context, secret string) error {
	if !cryptox.WellFormedToken(secret) {
		return nil
	}

	changed, err := s.repomanager.FeedbackTokens(s.tx.Conn()).MarkUsed(ctx, cryptox.HashToken(secret), s.now())
	if err != nil {
		return err
	}
	if changed {
		s.metrics.TokenUsed()
	}
	return nil
}

// CleanupExpired deactivates every active token whose expiry has passed and
// returns how many were touched. Rows are kept for auditing.
func (s *FeedbackTokenService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.FeedbackTokens(s.tx.Conn()).DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	s.metrics.TokensDeactivated(n)
	if n > 0 {
		s.logger.Info(ctx, "expired feedback tokens deactivated", "count", n)
	}
	return n, nil
}
