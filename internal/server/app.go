// Package server wires configuration, storage, messaging and services
// together and runs the HTTP API with its background jobs until a shutdown
// signal arrives.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/httpapi"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/scheduler"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

const serviceName = "cybercrime-hive"

type App struct {
	config  *config.Config
	logger  logging.Logger
	runtime *Runtime
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	rt, err := NewRuntime(ctx, c, logger, true)
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, runtime: rt}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	opts := httpapi.Options{
		Address:   app.config.HTTPAddr,
		SecretKey: app.config.SecretKey,
		RateLimit: app.config.FeedbackRateLimit,
		Metrics:   app.runtime.Metrics,
	}
	if app.runtime.Exporter != nil {
		opts.Exporter = app.runtime.Exporter
	}

	s := httpapi.NewHTTPServer(app.runtime.Services, app.logger, opts)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, app.config.OTLPEndpoint)
	if err != nil {
		app.logger.Warn(ctx, "tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.NewCleanupScheduler(app.runtime.Services.Tokens, app.config.CleanupInterval, app.logger).Run(ctx)
	}()

	wg.Wait()

	if err := shutdownTracing(context.Background()); err != nil {
		app.logger.Error(context.Background(), "tracing shutdown", "error", err)
	}
	if err := app.runtime.Close(); err != nil {
		app.logger.Error(context.Background(), "close runtime", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
