package postgres

import (
	"context"
	"time"
)

// Pool defaults applied when ConnectionDetails leaves a field at zero.
const (
	DefaultMaxOpenConns    = 50
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = time.Minute
)

// Config holds the pool settings shared by every connection pool the Driver
// opens.
type Config struct {
	ConnectionDetails ConnectionDetails `mapstructure:"connection_details"`
}

// ConnectionDetails tunes database/sql pooling.
type ConnectionDetails struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d ConnectionDetails) withDefaults() ConnectionDetails {
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = DefaultMaxOpenConns
	}
	if d.MaxIdleConns <= 0 {
		d.MaxIdleConns = DefaultMaxIdleConns
	}
	if d.ConnMaxLifetime <= 0 {
		d.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	return d
}

// Logger is an interface that matches the logger.Logger context-aware methods.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
