package services

import (
	"context"
	"fmt"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/auth"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

// StatusUpdateResult describes a completed status change. Warning is set
// when the report was resolved but the feedback request could not be
// issued or delivered; the status change itself stands.
type StatusUpdateResult struct {
	ReportID int64  `json:"report_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	TokenID  string `json:"token_id,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// FeedbackRequestResult is returned when an admin re-sends a feedback link.
type FeedbackRequestResult struct {
	ReportID  int64     `json:"report_id"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Warning   string    `json:"warning,omitempty"`
}

// ReportService drives the report status workflow and asks reporters for
// feedback once their report is resolved.
type ReportService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *FeedbackTokenService
	stamps      *FeedbackMetricsService
	notifier    events.Notifier
	publisher   events.Publisher
	siteName    string
	logger      logging.Logger
	metrics     *telemetry.Metrics
	now         func() time.Time
}

func NewReportService(d Deps, tokens *FeedbackTokenService, stamps *FeedbackMetricsService) *ReportService {
	d = d.withDefaults()
	return &ReportService{
		tx:          d.Tx,
		repomanager: d.Repos,
		tokens:      tokens,
		stamps:      stamps,
		notifier:    d.Notifier,
		publisher:   d.Publisher,
		siteName:    d.Config.SiteName,
		logger:      d.Logger.With("module", "reports"),
		metrics:     d.Metrics,
		now:         d.Now,
	}
}

// UpdateStatus moves a report to newStatus and appends the change to its
// timeline in one transaction. The actor is the principal found in ctx, if
// any. Entering "Resolved" triggers a feedback request.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID int64, newStatus, notes string) (*StatusUpdateResult, error) {
	if !models.ValidReportStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrInvalidArgument, newStatus)
	}

	var actorID *int64
	principal, ok := auth.PrincipalFromContext(ctx)
	if ok {
		id := principal.UserID
		actorID = &id
	}

	var report *models.Report
	var event *models.StatusChangeEvent

	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Reports(tx)

		var err error
		report, err = repo.GetForUpdate(ctx, reportID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := repo.UpdateStatus(ctx, reportID, newStatus, now); err != nil {
			return err
		}

		event, err = repo.AppendStatusEvent(ctx, &models.StatusChangeEvent{
			ReportID:   reportID,
			FromStatus: report.Status,
			ToStatus:   newStatus,
			ActorID:    actorID,
			Notes:      notes,
			At:         now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(newStatus)
	s.logger.Info(ctx, "report status changed",
		"report_id", reportID, "from", event.FromStatus, "to", newStatus)

	if err := s.publisher.Publish(ctx, events.SubjectReportStatusChanged, events.StatusChanged{
		ReportID: reportID,
		From:     event.FromStatus,
		To:       newStatus,
		ActorID:  actorID,
		At:       event.At,
	}); err != nil {
		s.logger.Warn(ctx, "publish status change event", "error", err)
	}

	result := &StatusUpdateResult{ReportID: reportID, From: event.FromStatus, To: newStatus}

	if newStatus == common.ReportStatusResolved && event.FromStatus != common.ReportStatusResolved {
		issued, err := s.tokens.Issue(ctx, issueRequestFor(report, principal))
		if err == nil {
			result.TokenID = issued.ID
			err = s.notify(ctx, report, issued)
		}
		if err != nil {
			result.Warning = s.softFail(ctx, reportID, err)
		}
	}

	return result, nil
}

// RequestFeedback issues a fresh feedback link for a resolved report,
// revoking the previous one, and sends it to the owner. Issue failures are
// errors; delivery failures are reported as a warning.
func (s *ReportService) RequestFeedback(ctx context.Context, reportID int64) (*FeedbackRequestResult, error) {
	report, err := s.repomanager.Reports(s.tx.Conn()).Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	principal, _ := auth.PrincipalFromContext(ctx)
	issued, err := s.tokens.Issue(ctx, issueRequestFor(report, principal))
	if err != nil {
		return nil, err
	}

	result := &FeedbackRequestResult{ReportID: reportID, TokenID: issued.ID, ExpiresAt: issued.ExpiresAt}
	if err := s.notify(ctx, report, issued); err != nil {
		result.Warning = s.softFail(ctx, reportID, err)
	}
	return result, nil
}

// Timeline returns the status history of a report, oldest first.
func (s *ReportService) Timeline(ctx context.Context, reportID int64) ([]*models.StatusChangeEvent, error) {
	repo := s.repomanager.Reports(s.tx.Conn())

	if _, err := repo.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return repo.ListStatusEvents(ctx, reportID)
}

func issueRequestFor(report *models.Report, p auth.Principal) IssueRequest {
	return IssueRequest{
		ReportID:        report.ID,
		UserID:          report.UserID,
		IssuerIP:        p.IP,
		IssuerUserAgent: p.UserAgent,
	}
}

func (s *ReportService) notify(ctx context.Context, report *models.Report, issued *IssuedToken) error {
	owner, err := s.repomanager.Users(s.tx.Conn()).Get(ctx, report.UserID)
	if err != nil {
		return fmt.Errorf("load report owner: %w", err)
	}

	err = s.notifier.NotifyFeedbackRequest(ctx, events.FeedbackRequestNotice{
		ReportID:    report.ID,
		ReportTitle: report.Title,
		UserID:      owner.ID,
		UserEmail:   owner.Email,
		UserName:    owner.FullName,
		SiteName:    s.siteName,
		FeedbackURL: issued.FeedbackURL,
		ExpiresAt:   issued.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("deliver feedback request: %w", err)
	}

	if _, err := s.stamps.Stamp(ctx, report.ID, models.FieldTokenSent); err != nil {
		return fmt.Errorf("stamp token sent: %w", err)
	}
	return nil
}

func (s *ReportService) softFail(ctx context.Context, reportID int64, err error) string {
	s.metrics.NotificationFailed()
	s.logger.Warn(ctx, "feedback request failed", "report_id", reportID, "error", err)
	return "status updated but feedback request was not sent: " + err.Error()
}
