package repomanager

import (
	"context"
	"database/sql"

	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/feedback"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/metrics"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/reports"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/tokens"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code can run against a plain connection or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Reports(db dbx.DBTX) reports.Repository
	FeedbackTokens(db dbx.DBTX) tokens.Repository
	FeedbackMetrics(db dbx.DBTX) metrics.Repository
	Feedback(db dbx.DBTX) feedback.Repository
}
