package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/niendoo/cybercrime-hive-sub000/internal/dbx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/events"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/export"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/repositories/repomanager"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/services"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

// Runtime is the wired dependency graph shared by the server and hivectl.
type Runtime struct {
	DB       *sql.DB
	Repos    repomanager.RepositoryManager
	Services *services.Services
	Exporter *export.Exporter
	Metrics  *telemetry.Metrics

	conn *events.Conn
}

// NewRuntime opens the database, optionally applies migrations, connects to
// NATS when configured and builds the services.
func NewRuntime(ctx context.Context, c *config.Config, logger logging.Logger, migrate bool) (*Runtime, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if migrate {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	rt := &Runtime{DB: db, Repos: rm, Metrics: telemetry.NewMetrics()}

	deps := services.Deps{
		Tx:      dbx.NewSQLTransactor(db, nil),
		Repos:   rm,
		Config:  c,
		Logger:  logger,
		Metrics: rt.Metrics,
	}

	if c.NATSURL != "" {
		conn, err := events.Connect(c.NATSURL, nats.Name("cybercrime-hive"))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		rt.conn = conn
		deps.Notifier = conn.Notifier()
		deps.Publisher = conn.Publisher()
	} else {
		logger.Warn(ctx, "NATS not configured, feedback requests will only be logged")
	}

	rt.Services = services.New(deps)

	if c.ExportsEnabled() {
		rt.Exporter = export.NewExporter(c, rt.Services.Metrics, logger)
	}

	return rt, nil
}

// Close releases the NATS connection and the database.
func (r *Runtime) Close() error {
	r.conn.Close()
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
