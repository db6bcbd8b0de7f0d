package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/niendoo/cybercrime-hive-sub000/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      admin access token validity, minutes
//	-u string   public site URL used in feedback links
//	-x int      feedback token expiry, hours
//	-i int      cleanup interval, minutes (0 disables)
//	-n string   NATS URL
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first so that -c/-config and
// flags owned by other components do not collide.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-u", "-x", "-i", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.SiteURL, "u", config.SiteURL, "public site URL")

	expiryHours := fs.Int("x", int(config.FeedbackTokenExpiry.Hours()), "feedback token expiry (in hours)")
	cleanupMinutes := fs.Int("i", int(config.CleanupInterval.Minutes()), "expired token cleanup interval (in minutes)")

	fs.StringVar(&config.NATSURL, "n", config.NATSURL, "NATS URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenMinutes) * time.Minute
	config.FeedbackTokenExpiry = time.Duration(*expiryHours) * time.Hour
	config.CleanupInterval = time.Duration(*cleanupMinutes) * time.Minute
	return nil
}
