package mariadb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aalemi-dev/sqlguard/database"
)

// readOnlyVariable is the session variable set for read-intent connections.
const readOnlyVariable = "transaction_read_only"

// Driver implements database.Driver for MariaDB and MySQL.
//
// It keeps one pooled *gorm.DB per distinct connection string, so a rotated
// connection string gets a fresh pool while executions already running on
// the old one complete normally. Pools are only closed by Close.
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

// Open acquires a dedicated connection from the pool serving connectionString
// and binds a GORM session to it. The caller must Close the connection.
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
// afterwards. Calling Close again is a no-op.
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
		return nil, fmt.Errorf("%w: mariadb driver", database.ErrObjectDisposed)
	}
	if db, ok := d.pools[connectionString]; ok {
		return db, nil
	}

	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	// No round trip happens here: the version probe and the initial ping are
	// both disabled, so the first network access is Conn in Open.
	db, err := gorm.Open(
		gormmysql.New(gormmysql.Config{
			DSN:                       dsn.FormatDSN(),
			SkipInitializeWithVersion: true,
		}),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			DisableAutomaticPing:   true,
			SkipDefaultTransaction: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB/MySQL connection pool: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}
	details := d.cfg.ConnectionDetails
	sqlDB.SetMaxOpenConns(details.MaxOpenConns)
	sqlDB.SetMaxIdleConns(details.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(details.ConnMaxLifetime)

	d.pools[connectionString] = db
	d.logInfo(ctx, "mariadb connection pool opened", map[string]interface{}{
		"address":   dsn.Addr,
		"database":  dsn.DBName,
		"read_only": dsn.Params[readOnlyVariable] == "1",
	})
	return db, nil
}

// parseConnectionString turns a connection string carrying an optional
// read-intent qualifier into a go-sql-driver config. Read intent becomes the
// transaction_read_only session variable; DATETIME columns are always parsed
// into time.Time.
func parseConnectionString(connectionString string) (*mysql.Config, error) {
	base, intent := database.SplitApplicationIntent(connectionString)
	cfg, err := mysql.ParseDSN(base)
	if err != nil {
		return nil, fmt.Errorf("invalid MariaDB/MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	if intent == database.IntentReadOnly {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[readOnlyVariable] = "1"
	}
	return cfg, nil
}

func (d *Driver) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if d.logger != nil {
		d.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}
