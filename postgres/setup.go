package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aalemi-dev/sqlguard/database"
)

// readOnlyParameter is the run-time parameter sent in the startup message of
// read-intent connections.
const readOnlyParameter = "default_transaction_read_only"

// Driver implements database.Driver for PostgreSQL on GORM and pgx.
//
// Pools are keyed by connection string and opened lazily; see the mariadb
// package for the same model.
type Driver struct {
	cfg    Config
	logger Logger

	mu     sync.Mutex
	pools  map[string]*gorm.DB
	closed bool
}

// NewDriver creates a Driver. No connection is made until the first Open.
func NewDriver(cfg Config) *Driver {
	cfg.ConnectionDetails = cfg.ConnectionDetails.withDefaults()
	return &Driver{
		cfg:   cfg,
		pools: make(map[string]*gorm.DB),
	}
}

// WithLogger attaches a logger to the driver.
// This method uses the builder pattern and returns the driver for method chaining.
func (d *Driver) WithLogger(logger Logger) *Driver {
	d.logger = logger
	return d
}

// Open acquires a dedicated connection for connectionString and binds a GORM
// session to it.
func (d *Driver) Open(ctx context.Context, connectionString string) (database.Connection, error) {
	db, err := d.pool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	session := db.Session(&gorm.Session{Context: ctx, NewDB: true})
	session.Statement.ConnPool = conn
	return &connection{conn: conn, session: session}, nil
}

// PoolCount returns how many connection pools are open.
func (d *Driver) PoolCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pools)
}

// Close closes every pool. Open fails with database.ErrObjectDisposed
// afterwards.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	pools := d.pools
	d.pools = make(map[string]*gorm.DB)
	d.mu.Unlock()

	var errs []error
	for _, db := range pools {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}

func (d *Driver) pool(ctx context.Context, connectionString string) (*gorm.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("%w: postgres driver", database.ErrObjectDisposed)
	}
	if db, ok := d.pools[connectionString]; ok {
		return db, nil
	}

	dsn, parsed, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(
		gormpostgres.New(gormpostgres.Config{DSN: dsn}),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			DisableAutomaticPing:   true,
			SkipDefaultTransaction: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection pool: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}
	details := d.cfg.ConnectionDetails
	sqlDB.SetMaxOpenConns(details.MaxOpenConns)
	sqlDB.SetMaxIdleConns(details.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(details.ConnMaxLifetime)

	d.pools[connectionString] = db
	d.logInfo(ctx, "postgres connection pool opened", map[string]interface{}{
		"host":      parsed.Host,
		"port":      int(parsed.Port),
		"database":  parsed.Database,
		"read_only": parsed.RuntimeParams[readOnlyParameter] == "on",
	})
	return db, nil
}

// parseConnectionString accepts keyword/value and postgres:// URL connection
// strings with an optional read-intent qualifier. URLs are rewritten to the
// keyword/value form so that read intent can be appended as a run-time
// parameter.
func parseConnectionString(connectionString string) (string, *pgconn.Config, error) {
	base, intent := database.SplitApplicationIntent(connectionString)
	base = strings.TrimSpace(base)

	if strings.HasPrefix(base, "postgres://") || strings.HasPrefix(base, "postgresql://") {
		kv, err := pq.ParseURL(base)
		if err != nil {
			return "", nil, fmt.Errorf("invalid PostgreSQL connection string: %w", err)
		}
		base = kv
	}
	if intent == database.IntentReadOnly {
		base += " " + readOnlyParameter + "=on"
	}

	parsed, err := pgconn.ParseConfig(base)
	if err != nil {
		return "", nil, fmt.Errorf("invalid PostgreSQL connection string: %w", err)
	}
	return base, parsed, nil
}

func (d *Driver) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if d.logger != nil {
		d.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}
