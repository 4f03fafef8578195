package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// MonitoredGuardedDatabase is a GuardedDatabase with an attachable Observer.
//
// Monitoring starts automatically before the first execution is assigned a
// request id, so the observer sees every event. Start and stop use a
// double-checked flag: the lock only protects flipping the flag, and the
// observer is (un)registered after the lock is released.
type MonitoredGuardedDatabase struct {
	*GuardedDatabase

	builder    ObserverBuilder
	lock       *semaphore.Weighted
	monitoring atomic.Bool
	disposed   atomic.Bool

	// registered is closed once the current observer finished registering.
	registered atomic.Pointer[chan struct{}]

	// observer and generation are only accessed while holding lock.
	observer   Observer
	generation uint64
}

// NewMonitoredGuarded creates a MonitoredGuardedDatabase. builder is called
// every time monitoring starts; a nil builder disables monitoring.
func NewMonitoredGuarded(cfg Config, driver Driver, builder ObserverBuilder) (*MonitoredGuardedDatabase, error) {
	g, err := NewGuarded(cfg, driver)
	if err != nil {
		return nil, err
	}

	m := &MonitoredGuardedDatabase{
		GuardedDatabase: g,
		builder:         builder,
		lock:            semaphore.NewWeighted(1),
	}
	g.onExecutionStarting = m.ensureMonitoring
	return m, nil
}

// WithLogger attaches a logger to the database, its breaker and the monitoring lifecycle.
// This method uses the builder pattern and returns the database for method chaining.
func (m *MonitoredGuardedDatabase) WithLogger(logger Logger) *MonitoredGuardedDatabase {
	m.GuardedDatabase.WithLogger(logger)
	return m
}

// IsMonitoring reports whether an observer is currently attached.
func (m *MonitoredGuardedDatabase) IsMonitoring() bool {
	return m.monitoring.Load()
}

// StartMonitoring builds and registers the observer. Calling it while
// monitoring is active is a no-op, including under concurrent calls.
// It fails with ErrObjectDisposed after Close.
func (m *MonitoredGuardedDatabase) StartMonitoring(ctx context.Context) error {
	if m.disposed.Load() {
		return fmt.Errorf("%w: %s", ErrObjectDisposed, m.Name())
	}
	if m.builder == nil {
		return nil
	}
	if m.monitoring.Load() {
		return m.awaitRegistration(ctx)
	}

	if err := m.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	if m.disposed.Load() {
		m.lock.Release(1)
		return fmt.Errorf("%w: %s", ErrObjectDisposed, m.Name())
	}
	if m.monitoring.Load() {
		m.lock.Release(1)
		return m.awaitRegistration(ctx)
	}
	observer := m.builder(m)
	ready := make(chan struct{})
	m.generation++
	generation := m.generation
	m.observer = observer
	m.registered.Store(&ready)
	m.monitoring.Store(true)
	m.lock.Release(1)

	err := observer.Register(ctx)
	close(ready)
	if err != nil {
		if !m.abandon(observer, generation) {
			// a concurrent StopMonitoring or Close already took the observer
			if m.disposed.Load() {
				return fmt.Errorf("%w: %s", ErrObjectDisposed, m.Name())
			}
			return nil
		}
		return err
	}

	m.logInfo(ctx, "database monitoring started", map[string]interface{}{
		"database": m.Name(),
	})
	return nil
}

// StopMonitoring unregisters and closes the observer. Calling it while
// monitoring is inactive is a no-op. A registration still in progress is
// awaited first, so the observer is never left subscribed.
func (m *MonitoredGuardedDatabase) StopMonitoring(ctx context.Context) error {
	if !m.monitoring.Load() {
		return nil
	}

	if err := m.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	if !m.monitoring.Load() {
		m.lock.Release(1)
		return nil
	}
	observer := m.observer
	ready := m.registered.Load()
	m.observer = nil
	m.monitoring.Store(false)
	m.lock.Release(1)

	// if ctx ends first the observer still detaches itself once Close is seen
	_ = waitReady(ctx, ready)

	err := errors.Join(observer.Unregister(ctx), observer.Close())
	if err != nil {
		m.logWarn(ctx, "failed to stop database monitoring", err, map[string]interface{}{
			"database": m.Name(),
		})
		return err
	}

	m.logInfo(ctx, "database monitoring stopped", map[string]interface{}{
		"database": m.Name(),
	})
	return nil
}

// Close stops monitoring and disposes the database. Executions and
// StartMonitoring fail with ErrObjectDisposed afterwards. Calling Close
// again is a no-op.
//
// There is no finalizer: a database that is never closed keeps its observer
// subscribed for the life of the process.
func (m *MonitoredGuardedDatabase) Close() error {
	if !m.disposed.CompareAndSwap(false, true) {
		return nil
	}
	return m.StopMonitoring(context.Background())
}

// awaitRegistration blocks until a registration started by another caller
// has completed, so no execution slips past an observer still subscribing.
func (m *MonitoredGuardedDatabase) awaitRegistration(ctx context.Context) error {
	return waitReady(ctx, m.registered.Load())
}

// waitReady blocks until ready is closed or ctx is done. A closed ready
// always wins over a done ctx.
func waitReady(ctx context.Context, ready *chan struct{}) error {
	if ready == nil {
		return nil
	}
	select {
	case <-*ready:
		return nil
	default:
	}
	select {
	case <-*ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureMonitoring runs before every execution is assigned a request id.
// Only disposal and cancellation fail the execution; any other monitoring
// fault is logged and the execution proceeds unobserved.
func (m *MonitoredGuardedDatabase) ensureMonitoring(ctx context.Context) error {
	err := m.StartMonitoring(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrObjectDisposed), ctx.Err() != nil:
		return err
	default:
		m.logWarn(ctx, "failed to start database monitoring", err, map[string]interface{}{
			"database": m.Name(),
		})
		return nil
	}
}

// abandon detaches an observer whose registration failed. It reports false
// when a concurrent StopMonitoring already took it.
func (m *MonitoredGuardedDatabase) abandon(observer Observer, generation uint64) bool {
	if err := m.lock.Acquire(context.Background(), 1); err != nil {
		return false
	}
	current := m.generation == generation && m.monitoring.Load()
	if current {
		m.observer = nil
		m.monitoring.Store(false)
	}
	m.lock.Release(1)

	_ = observer.Close()
	return current
}
