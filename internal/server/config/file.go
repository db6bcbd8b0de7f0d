package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/niendoo/cybercrime-hive-sub000/internal/flagx"
	"github.com/niendoo/cybercrime-hive-sub000/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for config files. Durations use timex.Duration
// so that both "168h" and integer nanoseconds are accepted.
type FileConfig struct {
	HTTPAddr                    string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	SiteURL                     string         `json:"site_url" yaml:"site_url"`
	SiteName                    string         `json:"site_name" yaml:"site_name"`
	FeedbackTokenExpiry         timex.Duration `json:"feedback_token_expiry" yaml:"feedback_token_expiry"`
	CleanupInterval             timex.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	FeedbackRateLimit           int            `json:"feedback_rate_limit" yaml:"feedback_rate_limit"`
	NATSURL                     string         `json:"nats_url" yaml:"nats_url"`
	OTLPEndpoint                string         `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	LogLevel                    string         `json:"log_level" yaml:"log_level"`
	S3RootUser                  string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config into config. The format is
// chosen by extension: .yaml and .yml are YAML, anything else is JSON.
// Keys missing from the file leave config untouched.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}
	return loadFile(path, config)
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SiteURL, c.SiteURL)
	setString(&config.SiteName, c.SiteName)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.FeedbackTokenExpiry.Duration != 0 {
		config.FeedbackTokenExpiry = c.FeedbackTokenExpiry.Duration
	}
	if c.CleanupInterval.Duration != 0 {
		config.CleanupInterval = c.CleanupInterval.Duration
	}
	if c.FeedbackRateLimit != 0 {
		config.FeedbackRateLimit = c.FeedbackRateLimit
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
