// Package export writes feedback funnel metrics as CSV and publishes them to
// S3-compatible object storage behind short-lived presigned links.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

var csvHeader = []string{
	"report_id",
	"token_generated_at",
	"token_sent_at",
	"link_clicked_at",
	"feedback_started_at",
	"feedback_completed_at",
	"time_to_click_hours",
	"time_to_complete_hours",
}

// WriteCSV writes rows with a header line. Unset timestamps and durations
// are written as empty cells; timestamps use RFC 3339 in UTC.
func WriteCSV(w io.Writer, rows []*models.FeedbackMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range rows {
		record := []string{
			strconv.FormatInt(m.ReportID, 10),
			formatTime(&m.TokenGeneratedAt),
			formatTime(m.TokenSentAt),
			formatTime(m.LinkClickedAt),
			formatTime(m.FeedbackStartedAt),
			formatTime(m.FeedbackCompletedAt),
			formatInt(m.TimeToClickHours),
			formatInt(m.TimeToCompleteHours),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
