package databases

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/aalemi-dev/sqlguard/database"
	"github.com/aalemi-dev/sqlguard/mariadb"
	"github.com/aalemi-dev/sqlguard/monitoring"
	"github.com/aalemi-dev/sqlguard/postgres"
)

func TestFXModule_BindsBuiltInDrivers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))

	var (
		registry *Registry
		settings *Settings
		maria    *mariadb.Driver
	)
	app := fxtest.New(t,
		mariadb.FXModule,
		postgres.FXModule,
		FXModule,
		fx.Supply(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_FX"}),
		fx.Populate(&registry, &settings, &maria),
	)
	app.RequireStart()

	assert.Equal(t, 250*time.Millisecond, settings.RetryInterval())
	cs, err := registry.ConnectionString(LeasedLocks)
	require.NoError(t, err)
	assert.Equal(t, "server=leased_locks", cs)
	assert.Equal(t, []Backend{LeasedLocks}, registry.Constructed())

	app.RequireStop()

	_, err = registry.Get(Users)
	assert.ErrorIs(t, err, ErrObjectDisposed)
	_, err = maria.Open(context.Background(), "app:secret@tcp(127.0.0.1:1)/users")
	assert.ErrorIs(t, err, database.ErrObjectDisposed)
}

func TestFXModule_MissingDriverFailsStartup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))

	app := fx.New(
		fx.NopLogger,
		mariadb.FXModule,
		FXModule,
		fx.Supply(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_FX_MISSING"}),
		fx.Invoke(func(*Registry) {}),
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "no postgres driver for LeasedLocks")
}

func TestFXModule_InvalidSettingsFailStartup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML("", Devices))

	app := fx.New(
		fx.NopLogger,
		FXModule,
		fx.Supply(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_FX_INVALID"}),
		fx.Supply(DriverSet{DriverMariaDB: &stubDriver{}, DriverPostgres: &stubDriver{}}),
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "missing settings for devices")
}

func TestFXModule_DriverSetWithMonitoring(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))

	driver := &stubDriver{}
	var (
		registry *Registry
		counters *monitoring.InMemoryCounterRegistry
	)
	app := fxtest.New(t,
		monitoring.FXModule,
		FXModule,
		fx.Supply(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_FX_SET"}),
		fx.Supply(DriverSet{DriverMariaDB: driver, DriverPostgres: driver}),
		fx.Populate(&registry, &counters),
	)
	app.RequireStart()
	defer app.RequireStop()

	affected, err := registry.ExecuteNonQuery(context.Background(), Throttling, database.Procedure("Throttling_Hit"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.Equal(t, "server=throttling", driver.lastConnectionString())
	assert.Equal(t, int64(1), counters.Count("sqlguard.Throttling", monitoring.RequestsPerSecond, "Throttling_Hit"))
}
