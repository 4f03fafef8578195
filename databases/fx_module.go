package databases

import (
	"context"
	"errors"

	"go.uber.org/fx"

	"github.com/aalemi-dev/sqlguard/database"
	"github.com/aalemi-dev/sqlguard/logger"
	"github.com/aalemi-dev/sqlguard/mariadb"
	"github.com/aalemi-dev/sqlguard/postgres"
)

// FXModule provides *Settings and *Registry.
//
// Settings are loaded from the supplied LoadOptions (or the defaults) and
// watched for changes once the application starts. Backends are bound to
// the drivers provided by mariadb.FXModule and postgres.FXModule; extra or
// replacement drivers can be supplied as a DriverSet. On stop the registry
// is closed first, then the drivers.
var FXModule = fx.Module("databases",
	fx.Provide(
		NewSettingsWithDI,
		NewRegistryWithDI,
	),
	fx.Invoke(RegisterRegistryLifecycle),
)

// DriverSet maps a driver kind, as written in BackendSettings.Driver, to a
// driver. Entries override the built-in drivers of the same kind.
type DriverSet map[string]database.Driver

// SettingsParams groups the dependencies needed to load Settings.
type SettingsParams struct {
	fx.In

	Options LoadOptions          `optional:"true"`
	Logger  *logger.LoggerClient `optional:"true"`
}

// NewSettingsWithDI loads Settings for dependency injection.
func NewSettingsWithDI(params SettingsParams) (*Settings, error) {
	settings, err := LoadSettings(params.Options)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		settings.WithLogger(params.Logger)
	}
	return settings, nil
}

// RegistryParams groups the dependencies needed to create the Registry.
type RegistryParams struct {
	fx.In

	Settings        *Settings
	MariaDB         *mariadb.Driver          `optional:"true"`
	Postgres        *postgres.Driver         `optional:"true"`
	Drivers         DriverSet                `optional:"true"`
	ObserverBuilder database.ObserverBuilder `optional:"true"`
	Logger          *logger.LoggerClient     `optional:"true"`
}

// NewRegistryWithDI creates the Registry for dependency injection. It fails
// when a configured driver kind has no driver.
func NewRegistryWithDI(params RegistryParams) (*Registry, error) {
	drivers := make(map[string]database.Driver, 2+len(params.Drivers))
	if params.MariaDB != nil {
		drivers[DriverMariaDB] = params.MariaDB
	}
	if params.Postgres != nil {
		drivers[DriverPostgres] = params.Postgres
	}
	for kind, driver := range params.Drivers {
		drivers[kind] = driver
	}

	resolvers, err := params.Settings.Resolvers(drivers)
	if err != nil {
		return nil, err
	}
	registry, err := NewRegistry(RegistryConfig{
		Resolvers:       resolvers,
		ObserverBuilder: params.ObserverBuilder,
		RetryInterval:   params.Settings.RetryInterval(),
	})
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		registry.WithLogger(params.Logger)
	}
	return registry, nil
}

// RegistryLifecycleParams groups the dependencies for the lifecycle hooks.
type RegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Registry  *Registry
	Settings  *Settings
	MariaDB   *mariadb.Driver  `optional:"true"`
	Postgres  *postgres.Driver `optional:"true"`
}

// RegisterRegistryLifecycle starts watching the settings file and closes the
// registry, then the built-in drivers, on stop.
func RegisterRegistryLifecycle(params RegistryLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Settings.Watch()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			errs := []error{params.Registry.Close()}
			if params.MariaDB != nil {
				errs = append(errs, params.MariaDB.Close())
			}
			if params.Postgres != nil {
				errs = append(errs, params.Postgres.Close())
			}
			return errors.Join(errs...)
		},
	})
}
