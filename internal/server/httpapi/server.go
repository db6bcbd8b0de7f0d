// Package httpapi exposes the feedback lifecycle over HTTP: the public
// feedback link endpoints and the JWT-protected admin API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/services"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Exporter produces a metrics export and a download link for it.
type Exporter interface {
	Export(ctx context.Context) (key string, url string, err error)
}

// Options configure an HTTPServer. Exporter and Metrics may be nil.
type Options struct {
	Address        string
	SecretKey      string
	RateLimit      int
	AllowedOrigins []string
	Exporter       Exporter
	Metrics        *telemetry.Metrics
}

type HTTPServer struct {
	address        string
	services       *services.Services
	exporter       Exporter
	metrics        *telemetry.Metrics
	logger         logging.Logger
	jwtSecret      []byte
	rateLimit      int
	allowedOrigins []string
}

func NewHTTPServer(svc *services.Services, l logging.Logger, opts Options) *HTTPServer {
	return &HTTPServer{
		address:        opts.Address,
		services:       svc,
		exporter:       opts.Exporter,
		metrics:        opts.Metrics,
		logger:         l.With("module", "http_server"),
		jwtSecret:      []byte(opts.SecretKey),
		rateLimit:      opts.RateLimit,
		allowedOrigins: opts.AllowedOrigins,
	}
}

// Routes builds the chi router.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	allowed := s.allowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		s.limit(r)
		r.Get("/feedback/", s.handleFeedbackForm)
		r.Post("/feedback/", s.handleFeedbackSubmit)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			s.limit(r)
			r.Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.accessTokenMiddleware)

			r.Patch("/reports/{id}/status", s.handleUpdateStatus)
			r.Get("/reports/{id}/timeline", s.handleTimeline)
			r.Get("/reports/{id}/feedback", s.handleListFeedback)
			r.Get("/reports/{id}/feedback-metrics", s.handleReportMetrics)
			r.Post("/reports/{id}/feedback-token", s.handleRequestFeedback)
			r.Get("/feedback-metrics", s.handleListMetrics)
			r.Post("/feedback-tokens/cleanup", s.handleCleanup)
			r.Post("/exports/feedback-metrics", s.handleExport)
		})
	})

	return r
}

func (s *HTTPServer) limit(r chi.Router) {
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           otelhttp.NewHandler(s.Routes(), "hive-http"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
