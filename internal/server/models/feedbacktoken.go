package models

import "time"

// FeedbackToken is the persisted half of a feedback link. Only the hash of
// the secret is stored.
type FeedbackToken struct {
	ID              string
	ReportID        int64
	UserID          int64
	TokenHash       string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	UsedAt          *time.Time
	RevokedAt       *time.Time
	IsActive        bool
	IssuerIP        string
	IssuerUserAgent string

	// Filled by lookups that join the report and its owner.
	ReportTitle string
	UserEmail   string
}

// Live reports whether the token may still be redeemed at now. A token is
// still good at the instant it expires, matching the cleanup sweep's
// expires_at < now.
func (t *FeedbackToken) Live(now time.Time) bool {
	return t.IsActive && t.UsedAt == nil && t.RevokedAt == nil && !now.After(t.ExpiresAt)
}

// TokenDescriptor is what a successful validation exposes to the feedback form.
type TokenDescriptor struct {
	TokenID     string `json:"token_id"`
	ReportID    int64  `json:"report_id"`
	UserID      int64  `json:"user_id"`
	ReportTitle string `json:"report_title"`
	UserEmail   string `json:"user_email"`
}

// FeedbackResponse is the feedback a user left for a resolved report.
type FeedbackResponse struct {
	ID        int64     `json:"id"`
	ReportID  int64     `json:"report_id"`
	UserID    int64     `json:"user_id"`
	TokenID   string    `json:"token_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}
