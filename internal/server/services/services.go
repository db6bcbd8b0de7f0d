// Package services contains the server-side business logic of the feedback
// lifecycle: issuing and redeeming feedback tokens, recording the feedback
// funnel, the report status workflow and admin authentication.
package services

import (
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

// Deps are the collaborators shared by every service. Tx, Repos and Config
// are required; the rest default to no-op implementations.
type Deps struct {
	Tx        dbx.Transactor
	Repos     repomanager.RepositoryManager
	Config    *config.Config
	Logger    logging.Logger
	Metrics   *telemetry.Metrics
	Notifier  events.Notifier
	Publisher events.Publisher
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Notifier == nil {
		d.Notifier = events.NewLogNotifier(d.Logger)
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Services bundles the services wired over one set of Deps.
type Services struct {
	Tokens   *FeedbackTokenService
	Metrics  *FeedbackMetricsService
	Reports  *ReportService
	Feedback *FeedbackService
	Admins   *AdminService
}

func New(d Deps) *Services {
	d = d.withDefaults()

	ms := NewFeedbackMetricsService(d)
	ts := NewFeedbackTokenService(d, ms)

	return &Services{
		Tokens:   ts,
		Metrics:  ms,
		Reports:  NewReportService(d, ts, ms),
		Feedback: NewFeedbackService(d, ts, ms),
		Admins:   NewAdminService(d),
	}
}
