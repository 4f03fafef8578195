package database

import (
	"context"
)

// Client executes commands against one logical backend.
//
// Every method validates the command, publishes the execution lifecycle
// events, and returns driver errors unchanged. Implementations are safe for
// concurrent use.
//
// Database, GuardedDatabase and MonitoredGuardedDatabase implement this interface.
type Client interface {
	ExecuteNonQuery(ctx context.Context, cmd Command) (int64, error)
	ExecuteReader(ctx context.Context, cmd Command) (*Rows, error)
	ExecuteScalar(ctx context.Context, cmd Command) (any, error)

	// EventSource lets observers attach to the client's lifecycle events.
	EventSource
}

// EventSource is the part of a client an Observer needs.
type EventSource interface {
	// Name identifies the backend, e.g. for counter categories.
	Name() string

	// Subscribe attaches fn to kind and returns the function that detaches it.
	Subscribe(kind EventKind, fn Listener) (unsubscribe func())
}

// Observer derives data from a client's lifecycle events without altering
// its behavior.
//
// Register and Unregister are idempotent. Register after Close fails with
// ErrObjectDisposed. Implementations must never panic from event handlers.
type Observer interface {
	Register(ctx context.Context) error
	Unregister(ctx context.Context) error
	Close() error
}

// ObserverBuilder creates the observer for a client. It is called each time
// monitoring starts.
type ObserverBuilder func(source EventSource) Observer

// Driver is the capability to reach a backend. It owns pooling; the client
// only opens, uses and closes one Connection per execution.
type Driver interface {
	// Open acquires a connection for connectionString. The string may carry a
	// read-intent qualifier, see SplitApplicationIntent.
	Open(ctx context.Context, connectionString string) (Connection, error)

	// IsTransientConnectivityError reports whether err means the backend is
	// unreachable (timeouts, network failures) rather than that the command
	// itself was wrong.
	IsTransientConnectivityError(err error) bool
}

// Connection executes commands on one acquired backend connection.
type Connection interface {
	Exec(ctx context.Context, kind CommandKind, text string, params []any) (int64, error)
	Query(ctx context.Context, kind CommandKind, text string, params []any) (Cursor, error)
	Close() error
}
