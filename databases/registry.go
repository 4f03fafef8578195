package databases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aalemi-dev/sqlguard/database"
)

// Logger is the context-aware logging contract shared with the database package.
type Logger = database.Logger

// Resolver supplies everything needed to build the client of one Backend.
type Resolver struct {
	ConnectionString func() string
	CommandTimeout   func() time.Duration
	Driver           database.Driver
}

// RegistryConfig configures NewRegistry.
type RegistryConfig struct {
	// Resolvers must contain a complete entry for every declared Backend.
	Resolvers map[Backend]Resolver

	// ObserverBuilder attaches monitoring to every client. Nil disables it.
	ObserverBuilder database.ObserverBuilder

	// RetryInterval is the breaker cooldown. Default: database.DefaultRetryInterval.
	RetryInterval time.Duration
}

// Registry owns one MonitoredGuardedDatabase per Backend. Clients are built
// on first use, exactly once, and closed together by Close.
type Registry struct {
	resolvers     [backendCount]Resolver
	slots         [backendCount]slot
	builder       database.ObserverBuilder
	retryInterval time.Duration
	logger        Logger
	closed        atomic.Bool
}

type slot struct {
	once sync.Once
	db   atomic.Pointer[database.MonitoredGuardedDatabase]
	err  error // written inside once
}

// NewRegistry validates that every Backend has a resolver. A missing or
// incomplete entry is a startup error.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	r := &Registry{
		builder:       cfg.ObserverBuilder,
		retryInterval: cfg.RetryInterval,
	}

	var errs []error
	for _, b := range AllBackends() {
		res, ok := cfg.Resolvers[b]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: no resolver for %s", ErrInvalidSettings, b))
		case res.ConnectionString == nil || res.CommandTimeout == nil || res.Driver == nil:
			errs = append(errs, fmt.Errorf("%w: incomplete resolver for %s", ErrInvalidSettings, b))
		default:
			r.resolvers[b] = res
		}
	}
	for b := range cfg.Resolvers {
		if !b.Valid() {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownBackend, b))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// WithLogger attaches a logger handed to every client built afterwards.
// This method uses the builder pattern and returns the registry for method chaining.
func (r *Registry) WithLogger(logger Logger) *Registry {
	r.logger = logger
	return r
}

// Get returns the client of b, building it on the first call. Concurrent
// first calls build a single client.
func (r *Registry) Get(b Backend) (*database.MonitoredGuardedDatabase, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, b)
	}
	if r.closed.Load() {
		return nil, fmt.Errorf("%w: database registry", ErrObjectDisposed)
	}

	s := &r.slots[b]
	s.once.Do(func() {
		db, err := r.build(b)
		if err != nil {
			s.err = err
			return
		}
		s.db.Store(db)
	})
	if s.err != nil {
		return nil, s.err
	}
	db := s.db.Load()
	if db == nil {
		// Close claimed the slot before it was built
		return nil, fmt.Errorf("%w: database registry", ErrObjectDisposed)
	}
	return db, nil
}

func (r *Registry) build(b Backend) (*database.MonitoredGuardedDatabase, error) {
	res := r.resolvers[b]
	db, err := database.NewMonitoredGuarded(database.Config{
		Name:             b.String(),
		ConnectionString: res.ConnectionString,
		CommandTimeout:   res.CommandTimeout,
		RetryInterval:    r.retryInterval,
	}, res.Driver, r.builder)
	if err != nil {
		return nil, err
	}
	if r.logger != nil {
		db.WithLogger(r.logger)
		r.logger.InfoWithContext(context.Background(), "database client created", nil, map[string]interface{}{
			"database": b.String(),
		})
	}
	return db, nil
}

// Validate fails with ErrUnknownBackend when b is not a declared Backend.
func (r *Registry) Validate(b Backend) error {
	_, err := r.Get(b)
	return err
}

// Constructed lists the backends whose client has been built.
func (r *Registry) Constructed() []Backend {
	var built []Backend
	for _, b := range AllBackends() {
		if r.slots[b].db.Load() != nil {
			built = append(built, b)
		}
	}
	return built
}

// Close closes every client built so far, exactly once, and rejects further
// Get calls. Clients that were never requested are not built. Calling Close
// again is a no-op.
//
// There is no finalizer: a registry that is never closed keeps its observers
// subscribed for the life of the process.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for i := range r.slots {
		s := &r.slots[i]
		// claims unbuilt slots and waits for builds in flight
		s.once.Do(func() {})
		if db := s.db.Load(); db != nil {
			if err := db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", Backend(i), err))
			}
		}
	}
	return errors.Join(errs...)
}

// ExecuteNonQuery runs cmd against b and returns the affected row count.
func (r *Registry) ExecuteNonQuery(ctx context.Context, b Backend, cmd database.Command) (int64, error) {
	db, err := r.Get(b)
	if err != nil {
		return 0, err
	}
	return db.ExecuteNonQuery(ctx, cmd)
}

// ExecuteReader runs cmd against b and returns every row it produced.
func (r *Registry) ExecuteReader(ctx context.Context, b Backend, cmd database.Command) (*database.Rows, error) {
	db, err := r.Get(b)
	if err != nil {
		return nil, err
	}
	return db.ExecuteReader(ctx, cmd)
}

// ExecuteScalar runs cmd against b and returns the first column of the first row.
func (r *Registry) ExecuteScalar(ctx context.Context, b Backend, cmd database.Command) (any, error) {
	db, err := r.Get(b)
	if err != nil {
		return nil, err
	}
	return db.ExecuteScalar(ctx, cmd)
}

// ConnectionString returns the current connection string of b.
func (r *Registry) ConnectionString(b Backend) (string, error) {
	db, err := r.Get(b)
	if err != nil {
		return "", err
	}
	return db.ConnectionString(), nil
}

// UtilizedConnectionString returns the connection string of b qualified with intent.
func (r *Registry) UtilizedConnectionString(b Backend, intent database.ApplicationIntent) (string, error) {
	db, err := r.Get(b)
	if err != nil {
		return "", err
	}
	return db.UtilizedConnectionString(intent), nil
}

// CommandTimeout returns the current command timeout of b.
func (r *Registry) CommandTimeout(b Backend) (time.Duration, error) {
	db, err := r.Get(b)
	if err != nil {
		return 0, err
	}
	return db.CommandTimeout(), nil
}
