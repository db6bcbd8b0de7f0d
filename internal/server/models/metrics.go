package models

import "time"

// MetricField names a funnel timestamp of FeedbackMetrics that may be stamped.
type MetricField string

const (
	FieldTokenSent         MetricField = "token_sent_at"
	FieldLinkClicked       MetricField = "link_clicked_at"
	FieldFeedbackStarted   MetricField = "feedback_started_at"
	FieldFeedbackCompleted MetricField = "feedback_completed_at"
)

// Valid reports whether f is one of the stampable fields.
func (f MetricField) Valid() bool {
	switch f {
	case FieldTokenSent, FieldLinkClicked, FieldFeedbackStarted, FieldFeedbackCompleted:
		return true
	}
	return false
}

// FeedbackMetrics tracks the feedback funnel of one report.
type FeedbackMetrics struct {
	ReportID            int64      `json:"report_id"`
	TokenGeneratedAt    time.Time  `json:"token_generated_at"`
	TokenSentAt         *time.Time `json:"token_sent_at,omitempty"`
	LinkClickedAt       *time.Time `json:"link_clicked_at,omitempty"`
	FeedbackStartedAt   *time.Time `json:"feedback_started_at,omitempty"`
	FeedbackCompletedAt *time.Time `json:"feedback_completed_at,omitempty"`
	TimeToClickHours    *int       `json:"time_to_click_hours,omitempty"`
	TimeToCompleteHours *int       `json:"time_to_complete_hours,omitempty"`
}

// WholeHoursBetween returns the number of full hours from start to end,
// truncated toward zero.
func WholeHoursBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Hour)
}
