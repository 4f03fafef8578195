package monitoring

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aalemi-dev/sqlguard/database"
)

// DatabaseObserver turns a client's lifecycle events into Monitor counters.
//
// Every registration gets a fresh Monitor and timer map. Text commands are
// counted only in the total set; stored procedures also get a set of their
// own. Handlers never panic outward: a counter fault is logged and dropped.
type DatabaseObserver struct {
	source   database.EventSource
	registry CounterRegistry
	logger   Logger

	state    atomic.Pointer[observerState]
	disposed atomic.Bool
}

// observerState lives for one Register/Unregister cycle.
type observerState struct {
	monitor     *Monitor
	timers      sync.Map // request id -> time.Time
	unsubscribe []func()
}

// NewDatabaseObserver creates an unregistered observer for source.
func NewDatabaseObserver(source database.EventSource, registry CounterRegistry) *DatabaseObserver {
	return &DatabaseObserver{source: source, registry: registry}
}

// WithLogger sets the logger used to report counter faults.
// This method uses the builder pattern and returns the observer for method chaining.
func (o *DatabaseObserver) WithLogger(logger Logger) *DatabaseObserver {
	o.logger = logger
	return o
}

// Register subscribes to the four lifecycle events. It is a no-op when
// already registered and fails with database.ErrObjectDisposed after Close.
func (o *DatabaseObserver) Register(_ context.Context) error {
	if o.disposed.Load() {
		return fmt.Errorf("%w: %s observer", database.ErrObjectDisposed, o.source.Name())
	}
	if o.state.Load() != nil {
		return nil
	}

	st := &observerState{monitor: NewMonitor(o.source.Name(), o.registry)}
	st.unsubscribe = []func(){
		o.source.Subscribe(database.ExecutionStarted, o.handler(st, o.started)),
		o.source.Subscribe(database.ExecutionSucceeded, o.handler(st, o.succeeded)),
		o.source.Subscribe(database.ExecutionFailed, o.handler(st, o.failed)),
		o.source.Subscribe(database.ExecutionFinished, o.handler(st, o.finished)),
	}
	if !o.state.CompareAndSwap(nil, st) {
		st.detach()
		return nil
	}
	// Close may have run while subscribing; whoever clears the state detaches it
	if o.disposed.Load() {
		if o.state.CompareAndSwap(st, nil) {
			st.detach()
		}
		return fmt.Errorf("%w: %s observer", database.ErrObjectDisposed, o.source.Name())
	}
	return nil
}

// Unregister unsubscribes and discards the Monitor and timers. Executions in
// flight finish unobserved. It is a no-op when not registered.
func (o *DatabaseObserver) Unregister(_ context.Context) error {
	if st := o.state.Swap(nil); st != nil {
		st.detach()
	}
	return nil
}

// Close unregisters and disposes the observer. Calling it again is a no-op.
func (o *DatabaseObserver) Close() error {
	o.disposed.Store(true)
	return o.Unregister(context.Background())
}

// Monitor returns the monitor of the current registration, nil when unregistered.
func (o *DatabaseObserver) Monitor() *Monitor {
	if st := o.state.Load(); st != nil {
		return st.monitor
	}
	return nil
}

func (st *observerState) detach() {
	for _, unsubscribe := range st.unsubscribe {
		unsubscribe()
	}
}

// sets returns the counter sets an event updates.
func (st *observerState) sets(e database.ExecutionEvent) []*CounterSet {
	if e.Kind == database.CommandStoredProcedure {
		return []*CounterSet{st.monitor.Total(), st.monitor.Operation(e.Text)}
	}
	return []*CounterSet{st.monitor.Total()}
}

// handler binds fn to st and drops events delivered after st was replaced.
func (o *DatabaseObserver) handler(st *observerState, fn func(*observerState, database.ExecutionEvent)) database.Listener {
	return func(ctx context.Context, e database.ExecutionEvent) {
		defer func() {
			if r := recover(); r != nil && o.logger != nil {
				o.logger.ErrorWithContext(ctx, "database observer failed to update counters", nil, map[string]interface{}{
					"database":   e.Database,
					"request_id": e.RequestID,
					"panic":      fmt.Sprint(r),
				})
			}
		}()
		if o.state.Load() != st {
			return
		}
		fn(st, e)
	}
}

func (o *DatabaseObserver) started(st *observerState, e database.ExecutionEvent) {
	st.timers.Store(e.RequestID, time.Now())
	for _, set := range st.sets(e) {
		set.RequestsOutstanding.Increment()
	}
}

func (o *DatabaseObserver) succeeded(st *observerState, e database.ExecutionEvent) {
	for _, set := range st.sets(e) {
		set.RequestsPerSecond.Increment()
	}
}

func (o *DatabaseObserver) failed(st *observerState, e database.ExecutionEvent) {
	for _, set := range st.sets(e) {
		set.FailuresPerSecond.Increment()
	}
}

func (o *DatabaseObserver) finished(st *observerState, e database.ExecutionEvent) {
	start, ok := st.timers.LoadAndDelete(e.RequestID)
	if !ok {
		return
	}
	elapsed := time.Since(start.(time.Time))
	for _, set := range st.sets(e) {
		set.AverageResponseTime.Sample(elapsed)
		set.RequestsOutstanding.Decrement()
	}
}

// NewObserverBuilder returns a builder creating a DatabaseObserver per
// monitoring start. logger may be nil.
func NewObserverBuilder(registry CounterRegistry, logger Logger) database.ObserverBuilder {
	return func(source database.EventSource) database.Observer {
		return NewDatabaseObserver(source, registry).WithLogger(logger)
	}
}
