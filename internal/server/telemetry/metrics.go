// Package telemetry holds the Prometheus counters of the feedback lifecycle
// and the OpenTelemetry tracer setup.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hive"

// Metrics is a set of counters registered on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	tokensIssued         prometheus.Counter
	tokenValidations     *prometheus.CounterVec
	tokensUsed           prometheus.Counter
	tokensDeactivated    prometheus.Counter
	metricStamps         *prometheus.CounterVec
	statusChanges        *prometheus.CounterVec
	notificationFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_tokens_issued_total",
			Help:      "Feedback tokens issued.",
		}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_token_validations_total",
			Help:      "Feedback token validations by result.",
		}, []string{"result"}),
		tokensUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_tokens_used_total",
			Help:      "Feedback tokens consumed by a submission.",
		}),
		tokensDeactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_tokens_deactivated_total",
			Help:      "Expired feedback tokens deactivated by the cleanup sweep.",
		}),
		metricStamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_metric_stamps_total",
			Help:      "Funnel timestamps recorded, by field.",
		}, []string{"field"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_status_changes_total",
			Help:      "Report status changes by target status.",
		}, []string{"status"}),
		notificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_notification_failures_total",
			Help:      "Feedback requests that could not be issued or delivered.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokensIssued,
		m.tokenValidations,
		m.tokensUsed,
		m.tokensDeactivated,
		m.metricStamps,
		m.statusChanges,
		m.notificationFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

// TokenValidated counts a validation attempt; result is "ok" or the reason
// it failed. The reason is never returned to callers, only counted.
func (m *Metrics) TokenValidated(result string) {
	if m == nil {
		return
	}
	m.tokenValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) TokenUsed() {
	if m == nil {
		return
	}
	m.tokensUsed.Inc()
}

func (m *Metrics) TokensDeactivated(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensDeactivated.Add(float64(n))
}

func (m *Metrics) MetricStamped(field string) {
	if m == nil {
		return
	}
	m.metricStamps.WithLabelValues(field).Inc()
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notificationFailures.Inc()
}
