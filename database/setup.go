package database

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Database executes commands against one backend through a Driver and
// publishes execution lifecycle events on its own EventBus.
//
// Connection strings and timeouts are resolved on every call, never cached.
// Request ids come from an atomic per-instance counter; overflow wraps,
// which is harmless since ids only correlate events of a single execution.
type Database struct {
	cfg            Config
	driver         Driver
	events         *EventBus
	requestCounter atomic.Int64
	logger         Logger

	// guard wraps each unit of work; identity for plain databases.
	guard func(ctx context.Context, unit func(context.Context) error) error

	// onExecutionStarting runs before a request id is assigned.
	onExecutionStarting func(ctx context.Context) error
}

// New creates a Database for cfg that executes through driver.
//
// Returns *Database concrete type; it satisfies Client.
func New(cfg Config, driver Driver) (*Database, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be blank", ErrInvalidArgument)
	}
	if cfg.ConnectionString == nil {
		return nil, fmt.Errorf("%w: connection string getter is required", ErrInvalidArgument)
	}
	if cfg.CommandTimeout == nil {
		return nil, fmt.Errorf("%w: command timeout getter is required", ErrInvalidArgument)
	}
	if driver == nil {
		return nil, fmt.Errorf("%w: driver is required", ErrInvalidArgument)
	}

	d := &Database{
		cfg:    cfg,
		driver: driver,
	}
	d.events = NewEventBus(d.listenerPanicked)
	d.guard = func(ctx context.Context, unit func(context.Context) error) error {
		return unit(ctx)
	}
	return d, nil
}

// WithLogger attaches a logger for lifecycle and diagnostic logging.
// This method uses the builder pattern and returns the database for method chaining.
func (d *Database) WithLogger(logger Logger) *Database {
	d.logger = logger
	return d
}

// Name returns the backend name.
func (d *Database) Name() string {
	return d.cfg.Name
}

// ConnectionString resolves the current connection string.
func (d *Database) ConnectionString() string {
	return d.cfg.ConnectionString()
}

// UtilizedConnectionString resolves the connection string the driver would
// receive for the given read intent.
func (d *Database) UtilizedConnectionString(intent ApplicationIntent) string {
	return QualifyConnectionString(d.cfg.ConnectionString(), intent)
}

// CommandTimeout resolves the current default command timeout.
func (d *Database) CommandTimeout() time.Duration {
	return d.cfg.CommandTimeout()
}

// Subscribe attaches fn to the given lifecycle event.
func (d *Database) Subscribe(kind EventKind, fn Listener) (unsubscribe func()) {
	return d.events.Subscribe(kind, fn)
}

// Events exposes the event bus, mainly for diagnostics and tests.
func (d *Database) Events() *EventBus {
	return d.events
}

func (d *Database) listenerPanicked(ctx context.Context, kind EventKind, recovered any) {
	d.logError(ctx, "execution event listener panicked", nil, map[string]interface{}{
		"database": d.cfg.Name,
		"event":    kind.String(),
		"panic":    fmt.Sprint(recovered),
	})
}

// logInfo logs an informational message using the configured logger if available.
func (d *Database) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if d.logger != nil {
		d.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

// logWarn logs a warning using the configured logger if available.
func (d *Database) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if d.logger != nil {
		d.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

// logError logs an error using the configured logger if available.
func (d *Database) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if d.logger != nil {
		d.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
