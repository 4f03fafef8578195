package database

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EventKind identifies one of the four execution lifecycle events.
type EventKind int

const (
	ExecutionStarted EventKind = iota
	ExecutionSucceeded
	ExecutionFailed
	ExecutionFinished
)

func (k EventKind) String() string {
	switch k {
	case ExecutionStarted:
		return "started"
	case ExecutionSucceeded:
		return "succeeded"
	case ExecutionFailed:
		return "failed"
	case ExecutionFinished:
		return "finished"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ExecutionEvent is the payload delivered to listeners. It is passed by value;
// Params must be treated as read-only.
type ExecutionEvent struct {
	// Database is the name of the client that published the event.
	Database string

	// RequestID is unique per client for the lifetime of the process and is
	// shared by all four events of one execution.
	RequestID int64

	Kind      CommandKind
	Text      string
	Params    []any
	StartedAt time.Time

	// Err is set on ExecutionFailed and on the ExecutionFinished that follows it.
	Err error
}

// Listener handles one lifecycle event. ctx is the context of the execution.
type Listener func(ctx context.Context, e ExecutionEvent)

// PanicHandler is told about listeners that panicked. The panic never reaches
// the execution path.
type PanicHandler func(ctx context.Context, kind EventKind, recovered any)

type listenerEntry struct {
	fn Listener
}

// EventBus is a per-client publish point for execution lifecycle events.
// Publishing is synchronous; listeners for the same event run in no
// particular order.
type EventBus struct {
	mu        sync.RWMutex
	listeners map[EventKind][]*listenerEntry
	onPanic   PanicHandler
}

// NewEventBus returns an empty bus. onPanic may be nil.
func NewEventBus(onPanic PanicHandler) *EventBus {
	return &EventBus{
		listeners: make(map[EventKind][]*listenerEntry),
		onPanic:   onPanic,
	}
}

// Subscribe adds fn for kind and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *EventBus) Subscribe(kind EventKind, fn Listener) (unsubscribe func()) {
	entry := &listenerEntry{fn: fn}

	b.mu.Lock()
	b.listeners[kind] = append(b.listeners[kind], entry)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.remove(kind, entry)
		})
	}
}

func (b *EventBus) remove(kind EventKind, entry *listenerEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[kind]
	for i, e := range current {
		if e == entry {
			// copy-on-write so in-flight snapshots stay valid
			next := make([]*listenerEntry, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			b.listeners[kind] = next
			return
		}
	}
}

// ListenerCount returns the number of listeners subscribed to kind.
func (b *EventBus) ListenerCount(kind EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

// Publish delivers e to every listener of kind. It never panics.
func (b *EventBus) Publish(ctx context.Context, kind EventKind, e ExecutionEvent) {
	b.mu.RLock()
	snapshot := b.listeners[kind]
	b.mu.RUnlock()

	for _, entry := range snapshot {
		b.invoke(ctx, kind, entry.fn, e)
	}
}

func (b *EventBus) invoke(ctx context.Context, kind EventKind, fn Listener, e ExecutionEvent) {
	defer func() {
		if r := recover(); r != nil && b.onPanic != nil {
			b.onPanic(ctx, kind, r)
		}
	}()
	fn(ctx, e)
}
