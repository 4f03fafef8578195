package database

import (
	"context"
	"time"
)

// DefaultRetryInterval is how long a tripped breaker stays open before
// permitting a trial execution.
const DefaultRetryInterval = 100 * time.Millisecond

// Config describes one logical backend.
type Config struct {
	// Name identifies the backend in events, counters, logs and breaker diagnostics.
	Name string

	// ConnectionString is resolved on every execution so that rotated
	// credentials apply without rebuilding the client.
	ConnectionString func() string

	// CommandTimeout is resolved on every execution. A Command.Timeout > 0
	// takes precedence. A non-positive result disables the timeout.
	CommandTimeout func() time.Duration

	// RetryInterval is the breaker cooldown. Only used by guarded clients.
	// Default: DefaultRetryInterval.
	RetryInterval time.Duration
}

// Logger is an interface that matches the logger.Logger context-aware methods.
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
