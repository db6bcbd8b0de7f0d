package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.TokenIssued()
	m.TokenIssued()
	m.TokenValidated("ok")
	m.TokenValidated("expired")
	m.TokenValidated("expired")
	m.TokenUsed()
	m.TokensDeactivated(3)
	m.TokensDeactivated(0)
	m.MetricStamped("link_clicked_at")
	m.StatusChanged("Resolved")
	m.NotificationFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokensIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenValidations.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokenValidations.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokensUsed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tokensDeactivated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metricStamps.WithLabelValues("link_clicked_at")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("Resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationFailures))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TokenIssued()
		m.TokenValidated("ok")
		m.TokenUsed()
		m.TokensDeactivated(1)
		m.MetricStamped("token_sent_at")
		m.StatusChanged("Closed")
		m.NotificationFailed()
	})
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.TokenIssued()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "hive_feedback_tokens_issued_total 1"))
}

func TestInitTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "hive", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("collector:4318"), 2)
	assert.Len(t, exporterOptions("http://collector:4318"), 2)
	assert.Len(t, exporterOptions("https://collector:4318/v1/traces"), 2)
	assert.Len(t, exporterOptions("http://collector:4318/v1/traces"), 3)
}
