package models

import "time"

// Report statuses.
const (
	StatusPending     = "Pending"
	StatusUnderReview = "Under Review"
	StatusInProgress  = "In Progress"
	StatusResolved    = "Resolved"
	StatusClosed      = "Closed"
	StatusRejected    = "Rejected"
)

var reportStatuses = map[string]struct{}{
	StatusPending:     {},
	StatusUnderReview: {},
	StatusInProgress:  {},
	StatusResolved:    {},
	StatusClosed:      {},
	StatusRejected:    {},
}

// ValidReportStatus reports whether s is one of the known statuses. The
// comparison is exact: "resolved" is not "Resolved".
func ValidReportStatus(s string) bool {
	_, ok := reportStatuses[s]
	return ok
}

// Report is an incident report filed by a user.
type Report struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusChangeEvent is one entry of a report's append-only status timeline.
type StatusChangeEvent struct {
	ID         int64     `json:"id"`
	ReportID   int64     `json:"report_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	Notes      string    `json:"notes"`
	At         time.Time `json:"at"`
}
