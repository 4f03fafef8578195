package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// errTransient is classified as a connectivity failure by fakeDriver.
var errTransient = errors.New("general network error")

// errConstraint is a pass-through backend error.
var errConstraint = errors.New("constraint violation")

// fakeDriver records every Open and delegates execution to the configured funcs.
type fakeDriver struct {
	opens atomic.Int64

	mu          sync.Mutex
	connStrings []string

	openErr error
	exec    func(ctx context.Context, kind CommandKind, text string, params []any) (int64, error)
	query   func(ctx context.Context, kind CommandKind, text string, params []any) (Cursor, error)
}

func (d *fakeDriver) Open(ctx context.Context, connectionString string) (Connection, error) {
	d.opens.Add(1)
	d.mu.Lock()
	d.connStrings = append(d.connStrings, connectionString)
	d.mu.Unlock()

	if d.openErr != nil {
		return nil, d.openErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &fakeConnection{driver: d}, nil
}

func (d *fakeDriver) IsTransientConnectivityError(err error) bool {
	return errors.Is(err, errTransient)
}

func (d *fakeDriver) lastConnectionString() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.connStrings) == 0 {
		return ""
	}
	return d.connStrings[len(d.connStrings)-1]
}

type fakeConnection struct {
	driver *fakeDriver
	closed atomic.Bool
}

func (c *fakeConnection) Exec(ctx context.Context, kind CommandKind, text string, params []any) (int64, error) {
	if c.driver.exec == nil {
		return 0, nil
	}
	return c.driver.exec(ctx, kind, text, params)
}

func (c *fakeConnection) Query(ctx context.Context, kind CommandKind, text string, params []any) (Cursor, error) {
	if c.driver.query == nil {
		return &fakeCursor{}, nil
	}
	return c.driver.query(ctx, kind, text, params)
}

func (c *fakeConnection) Close() error {
	c.closed.Store(true)
	return nil
}

// fakeCursor serves fixed rows the way *sql.Rows does.
type fakeCursor struct {
	columns []string
	values  [][]any
	pos     int
	err     error // returned by Err once the rows are exhausted
	closed  bool
}

func newFakeCursor(columns []string, values ...[]any) *fakeCursor {
	return &fakeCursor{columns: columns, values: values}
}

func (c *fakeCursor) Columns() ([]string, error) {
	return c.columns, nil
}

func (c *fakeCursor) Next() bool {
	if c.pos >= len(c.values) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Scan(dest ...any) error {
	row := c.values[c.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return errors.New("unsupported scan destination")
		}
		*p = row[i]
	}
	return nil
}

func (c *fakeCursor) Err() error {
	if c.pos >= len(c.values) {
		return c.err
	}
	return nil
}

func (c *fakeCursor) Close() error {
	c.closed = true
	return nil
}

// eventRecorder subscribes to all four events and records them in order.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	kind  EventKind
	event ExecutionEvent
}

func recordEvents(source EventSource) *eventRecorder {
	r := &eventRecorder{}
	for _, kind := range []EventKind{ExecutionStarted, ExecutionSucceeded, ExecutionFailed, ExecutionFinished} {
		kind := kind
		source.Subscribe(kind, func(_ context.Context, e ExecutionEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, recordedEvent{kind: kind, event: e})
		})
	}
	return r
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

func (r *eventRecorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

func testConfig(name string) Config {
	return Config{
		Name:             name,
		ConnectionString: func() string { return "server=primary;database=" + name },
		CommandTimeout:   func() time.Duration { return time.Second },
	}
}
