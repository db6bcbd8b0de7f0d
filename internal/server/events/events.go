// Package events carries feedback lifecycle messages over NATS. Feedback
// requests, which embed the secret link, go out on core NATS and are never
// persisted; lifecycle events without secrets go to JetStream.
package events

import (
	"context"
	"time"
)

// Subjects.
const (
	SubjectFeedbackRequest     = "hive.notifications.feedback_request"
	SubjectReportStatusChanged = "hive.reports.status_changed"
	SubjectTokenIssued         = "hive.feedback.token_issued"
	SubjectFeedbackCompleted   = "hive.feedback.completed"
)

// FeedbackRequestNotice asks a mailer to invite the report owner to leave
// feedback. FeedbackURL contains the token secret.
type FeedbackRequestNotice struct {
	ReportID    int64     `json:"report_id"`
	ReportTitle string    `json:"report_title"`
	UserID      int64     `json:"user_id"`
	UserEmail   string    `json:"user_email"`
	UserName    string    `json:"user_name"`
	SiteName    string    `json:"site_name"`
	FeedbackURL string    `json:"feedback_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type StatusChanged struct {
	ReportID int64     `json:"report_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	ActorID  *int64    `json:"actor_id,omitempty"`
	At       time.Time `json:"at"`
}

type TokenIssued struct {
	TokenID   string    `json:"token_id"`
	ReportID  int64     `json:"report_id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FeedbackCompleted struct {
	ReportID int64     `json:"report_id"`
	TokenID  string    `json:"token_id"`
	Rating   int       `json:"rating"`
	At       time.Time `json:"at"`
}

// Notifier hands a feedback request to whatever delivers it to the user.
type Notifier interface {
	NotifyFeedbackRequest(ctx context.Context, n FeedbackRequestNotice) error
}

// Publisher publishes lifecycle events. Implementations must not be handed
// anything that contains a token secret.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}
