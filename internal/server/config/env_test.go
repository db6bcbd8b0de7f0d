package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverlaysOnlySetVariables(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := parseEnv(context.Background(), &c, envconfig.MapLookuper(map[string]string{
		"HIVE_SITE_URL":             "https://hive.example",
		"HIVE_FEEDBACK_TOKEN_EXPIRY": "48h",
		"HIVE_FEEDBACK_RATE_LIMIT":  "5",
		"HIVE_NATS_URL":             "nats://nats:4222",
		"SITE_URL":                  "https://ignored.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://hive.example", c.SiteURL)
	assert.Equal(t, 48*time.Hour, c.FeedbackTokenExpiry)
	assert.Equal(t, 5, c.FeedbackRateLimit)
	assert.Equal(t, "nats://nats:4222", c.NATSURL)

	// untouched
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "CyberCrime Hive", c.SiteName)
	assert.Equal(t, time.Hour, c.CleanupInterval)
}

func TestParseEnv_BadDuration(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := parseEnv(context.Background(), &c, envconfig.MapLookuper(map[string]string{
		"HIVE_CLEANUP_INTERVAL": "sometimes",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env config")
}
