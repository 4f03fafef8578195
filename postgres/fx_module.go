package postgres

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/sqlguard/logger"
)

// FXModule provides the PostgreSQL *Driver and closes its pools on stop.
var FXModule = fx.Module("postgres",
	fx.Provide(NewDriverWithDI),
	fx.Invoke(RegisterDriverLifecycle),
)

// DriverParams groups the dependencies needed to create a Driver.
type DriverParams struct {
	fx.In

	Config Config               `optional:"true"`
	Logger *logger.LoggerClient `optional:"true"`
}

// NewDriverWithDI creates a Driver for dependency injection.
func NewDriverWithDI(params DriverParams) *Driver {
	driver := NewDriver(params.Config)
	if params.Logger != nil {
		driver.WithLogger(params.Logger)
	}
	return driver
}

// DriverLifecycleParams groups the dependencies for the lifecycle hook.
type DriverLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Driver    *Driver
}

// RegisterDriverLifecycle closes every pool when the application stops.
func RegisterDriverLifecycle(params DriverLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return params.Driver.Close()
		},
	})
}
