package databases

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aalemi-dev/sqlguard/database"
	"github.com/aalemi-dev/sqlguard/logger"
)

// settingsYAML renders a settings file covering every backend except skip.
// LeasedLocks uses postgres, Users has its own timeout and connection
// strings are "server=<key><suffix>".
func settingsYAML(suffix string, skip ...Backend) string {
	var sb strings.Builder
	sb.WriteString("default_command_timeout: 15s\nretry_interval: 250ms\nbackends:\n")
	for _, b := range AllBackends() {
		if slices.Contains(skip, b) {
			continue
		}
		driver := DriverMariaDB
		if b == LeasedLocks {
			driver = DriverPostgres
		}
		fmt.Fprintf(&sb, "  %s:\n    driver: %s\n    connection_string: \"server=%s%s\"\n", b.Key(), driver, b.Key(), suffix)
		if b == Users {
			sb.WriteString("    command_timeout: 5s\n")
		}
	}
	return sb.String()
}

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func completeConfig() Config {
	backends := make(map[string]BackendSettings)
	for _, b := range AllBackends() {
		backends[b.Key()] = BackendSettings{Driver: DriverMariaDB, ConnectionString: "server=" + b.Key()}
	}
	backends[LeasedLocks.Key()] = BackendSettings{Driver: DriverPostgres, ConnectionString: "host=locks"}
	return Config{Backends: backends}
}

func TestLoadSettings_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))

	s, err := LoadSettings(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_FROM_FILE"})
	require.NoError(t, err)

	cfg := s.Current()
	assert.Equal(t, 15*time.Second, cfg.DefaultCommandTimeout)
	assert.Equal(t, 250*time.Millisecond, s.RetryInterval())
	assert.Len(t, cfg.Backends, len(AllBackends()))

	assert.Equal(t, DriverPostgres, s.DriverKind(LeasedLocks))
	assert.Equal(t, DriverMariaDB, s.DriverKind(EmailAddresses))
	assert.Equal(t, "server=users", s.ConnectionStringGetter(Users)())
	assert.Equal(t, "server=mac_addresses", s.ConnectionStringGetter(MACAddresses)())
	assert.Equal(t, 5*time.Second, s.CommandTimeoutGetter(Users)())
	assert.Equal(t, 15*time.Second, s.CommandTimeoutGetter(Roles)(), "falls back to the default timeout")
}

func TestLoadSettings_SearchesConfigPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSettings(t, filepath.Join(dir, DefaultConfigName+".yaml"), settingsYAML(""))

	s, err := LoadSettings(LoadOptions{ConfigPaths: []string{dir}, EnvPrefix: "SQLGUARD_SEARCH"})
	require.NoError(t, err)
	assert.Equal(t, "server=devices", s.ConnectionStringGetter(Devices)())
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		message string
	}{
		{
			name:    "missing backend",
			content: settingsYAML("", Roles, IPAddresses),
			message: "missing settings for roles, ip_addresses",
		},
		{
			name:    "unknown backend",
			content: settingsYAML("") + "  customers:\n    driver: mariadb\n    connection_string: server=customers\n",
			message: "unknown backends customers",
		},
		{
			name:    "unknown driver",
			content: strings.Replace(settingsYAML(""), "users:\n    driver: mariadb", "users:\n    driver: oracle", 1),
			message: "must be a valid value",
		},
		{
			name:    "empty connection string",
			content: strings.Replace(settingsYAML(""), "\"server=roles\"", "\"\"", 1),
			message: "cannot be blank",
		},
		{
			name:    "malformed timeout",
			content: strings.Replace(settingsYAML(""), "default_command_timeout: 15s", "default_command_timeout: soon", 1),
			message: "invalid duration",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "settings.yaml")
			writeSettings(t, path, tc.content)

			_, err := LoadSettings(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_INVALID"})
			require.ErrorIs(t, err, ErrInvalidSettings)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSettings(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	// a searched-for file may be absent, but then nothing configures the backends
	_, err = LoadSettings(LoadOptions{ConfigPaths: []string{t.TempDir()}, EnvPrefix: "SQLGUARD_ABSENT"})
	require.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "cannot be blank")
}

func TestLoadSettings_FromEnvironment(t *testing.T) {
	const prefix = "SQLGUARD_ENV_ONLY"
	for _, b := range AllBackends() {
		key := prefix + "_BACKENDS_" + strings.ToUpper(b.Key())
		t.Setenv(key+"_DRIVER", DriverPostgres)
		t.Setenv(key+"_CONNECTION_STRING", "host="+b.Key())
	}
	t.Setenv(prefix+"_BACKENDS_USERS_COMMAND_TIMEOUT", "3s")
	t.Setenv(prefix+"_DEFAULT_COMMAND_TIMEOUT", "7s")

	s, err := LoadSettings(LoadOptions{ConfigPaths: []string{t.TempDir()}, EnvPrefix: prefix})
	require.NoError(t, err)

	assert.Equal(t, "host=email_addresses", s.ConnectionStringGetter(EmailAddresses)())
	assert.Equal(t, DriverPostgres, s.DriverKind(Devices))
	assert.Equal(t, 3*time.Second, s.CommandTimeoutGetter(Users)())
	assert.Equal(t, 7*time.Second, s.CommandTimeoutGetter(Devices)())
	assert.Equal(t, database.DefaultRetryInterval, s.RetryInterval())
}

func TestLoadSettings_EnvironmentOverridesFile(t *testing.T) {
	const prefix = "SQLGUARD_OVERRIDE"
	t.Setenv(prefix+"_BACKENDS_USERS_CONNECTION_STRING", "server=users-from-env")

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))

	s, err := LoadSettings(LoadOptions{ConfigFile: path, EnvPrefix: prefix})
	require.NoError(t, err)
	assert.Equal(t, "server=users-from-env", s.ConnectionStringGetter(Users)())
	assert.Equal(t, "server=roles", s.ConnectionStringGetter(Roles)())
}

func TestSettings_ReloadKeepsLastValidSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))
	s, err := LoadSettings(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_RELOAD"})
	require.NoError(t, err)

	getter := s.ConnectionStringGetter(Users)
	assert.Equal(t, "server=users", getter())

	writeSettings(t, path, settingsYAML("-rotated"))
	require.NoError(t, s.Reload())
	assert.Equal(t, "server=users-rotated", getter(), "getters read the active snapshot")

	writeSettings(t, path, settingsYAML("-broken", Users))
	assert.ErrorIs(t, s.Reload(), ErrInvalidSettings)
	assert.Equal(t, "server=users-rotated", getter())
	assert.Equal(t, "server=roles-rotated", s.ConnectionStringGetter(Roles)())
}

func TestSettings_WatchAppliesFileChanges(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, settingsYAML(""))

	s, err := LoadSettings(LoadOptions{ConfigFile: path, EnvPrefix: "SQLGUARD_WATCH"})
	require.NoError(t, err)
	s.WithLogger(&logger.LoggerClient{Zap: zap.New(core)})
	s.Watch()

	writeSettings(t, path, settingsYAML("-rotated"))
	getter := s.ConnectionStringGetter(Services)
	assert.Eventually(t, func() bool {
		return getter() == "server=services-rotated"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("database settings reloaded").Len() > 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	s, err := NewSettings(completeConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultCommandTimeout, s.Current().DefaultCommandTimeout)
	assert.Equal(t, database.DefaultRetryInterval, s.RetryInterval())
	assert.Equal(t, DefaultCommandTimeout, s.CommandTimeoutGetter(Users)())
	assert.NotPanics(t, s.Watch)
	assert.NoError(t, s.Reload())

	cfg := completeConfig()
	delete(cfg.Backends, Throttling.Key())
	_, err = NewSettings(cfg)
	require.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "throttling")

	cfg = completeConfig()
	cfg.Backends[Users.Key()] = BackendSettings{Driver: DriverMariaDB, ConnectionString: "x", CommandTimeout: -time.Second}
	_, err = NewSettings(cfg)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestSettings_Resolvers(t *testing.T) {
	t.Parallel()

	s, err := NewSettings(completeConfig())
	require.NoError(t, err)

	maria, pg := &stubDriver{}, &stubDriver{}
	resolvers, err := s.Resolvers(map[string]database.Driver{
		DriverMariaDB:  maria,
		DriverPostgres: pg,
	})
	require.NoError(t, err)
	require.Len(t, resolvers, len(AllBackends()))
	assert.Same(t, pg, resolvers[LeasedLocks].Driver)
	assert.Same(t, maria, resolvers[Users].Driver)
	assert.Equal(t, "host=locks", resolvers[LeasedLocks].ConnectionString())
	assert.Equal(t, DefaultCommandTimeout, resolvers[Users].CommandTimeout())

	_, err = s.Resolvers(map[string]database.Driver{DriverMariaDB: maria})
	require.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "no postgres driver for LeasedLocks")
}
