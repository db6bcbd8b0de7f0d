// Package logging defines the structured logger the server components take
// at construction. The only implementation wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger. Args are key-value pairs:
//
//	logger.Info(ctx, "feedback token issued", "report_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}
