package events

import (
	"context"

	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
)

// LogNotifier records that a feedback request would have been sent. It is
// used when no NATS server is configured. The link itself is not logged.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) NotifyFeedbackRequest(ctx context.Context, notice FeedbackRequestNotice) error {
	n.logger.Info(ctx, "feedback request not delivered, messaging disabled",
		"report_id", notice.ReportID, "user_id", notice.UserID, "expires_at", notice.ExpiresAt)
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
