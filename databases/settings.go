package databases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/aalemi-dev/sqlguard/database"
)

// Settings defaults.
const (
	DefaultCommandTimeout = 30 * time.Second
	DefaultEnvPrefix      = "SQLGUARD"
	DefaultConfigName     = "sqlguard"
)

// Driver kinds accepted in BackendSettings.Driver.
const (
	DriverMariaDB  = "mariadb"
	DriverPostgres = "postgres"
)

// BackendSettings configures one Backend.
type BackendSettings struct {
	// Driver is DriverMariaDB or DriverPostgres.
	Driver string `mapstructure:"driver"`

	// ConnectionString is the driver DSN. Required.
	ConnectionString string `mapstructure:"connection_string"`

	// CommandTimeout overrides Config.DefaultCommandTimeout when > 0.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// Validate implements validation.Validatable.
func (s BackendSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(DriverMariaDB, DriverPostgres)),
		validation.Field(&s.ConnectionString, validation.Required),
		validation.Field(&s.CommandTimeout, validation.Min(time.Duration(0))),
	)
}

// Config is one snapshot of the database settings. Backends is keyed by
// Backend.Key and must cover every declared Backend.
//
//	default_command_timeout: 30s
//	retry_interval: 100ms
//	backends:
//	  users:
//	    driver: mariadb
//	    connection_string: "app:secret@tcp(users-db:3306)/users"
//	    command_timeout: 5s
type Config struct {
	DefaultCommandTimeout time.Duration              `mapstructure:"default_command_timeout"`
	RetryInterval         time.Duration              `mapstructure:"retry_interval"`
	Backends              map[string]BackendSettings `mapstructure:"backends"`
}

// Validate implements validation.Validatable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultCommandTimeout, validation.Required, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Backends, validation.Required, validation.By(coversEveryBackend)),
	)
}

func coversEveryBackend(value interface{}) error {
	backends, ok := value.(map[string]BackendSettings)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of backend settings")
	}

	var missing, unknown []string
	for _, b := range AllBackends() {
		if _, ok := backends[b.Key()]; !ok {
			missing = append(missing, b.Key())
		}
	}
	for key := range backends {
		if _, err := ParseBackend(key); err != nil {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	switch {
	case len(missing) > 0:
		return validation.NewError("validation_missing_backend", "missing settings for "+strings.Join(missing, ", "))
	case len(unknown) > 0:
		return validation.NewError("validation_unknown_backend", "unknown backends "+strings.Join(unknown, ", "))
	}
	return nil
}

func (c *Config) backend(b Backend) BackendSettings {
	return c.Backends[b.Key()]
}

// LoadOptions controls where LoadSettings looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit settings file. When empty, ConfigName is
	// searched for in ConfigPaths; a missing file is not an error as long
	// as the environment supplies every setting.
	ConfigFile string

	// ConfigName defaults to DefaultConfigName.
	ConfigName string

	// ConfigPaths defaults to "." and "./config".
	ConfigPaths []string

	// EnvPrefix defaults to DefaultEnvPrefix. Every key can be overridden by
	// PREFIX_KEY with dots replaced by underscores, for example
	// SQLGUARD_BACKENDS_USERS_CONNECTION_STRING.
	EnvPrefix string
}

// Settings holds the current Config and resolves per-backend values from it
// on every call, so a reloaded file applies to subsequent executions.
type Settings struct {
	v       *viper.Viper
	current atomic.Pointer[Config]
	logger  Logger
}

// NewSettings wraps a fixed Config.
func NewSettings(cfg Config) (*Settings, error) {
	if cfg.DefaultCommandTimeout == 0 {
		cfg.DefaultCommandTimeout = DefaultCommandTimeout
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = database.DefaultRetryInterval
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	s := &Settings{}
	s.current.Store(&cfg)
	return s, nil
}

// LoadSettings reads settings from a YAML file and the environment.
func LoadSettings(opts LoadOptions) (*Settings, error) {
	v := viper.New()
	v.SetDefault("default_command_timeout", DefaultCommandTimeout)
	v.SetDefault("retry_interval", database.DefaultRetryInterval)

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// nested keys are only read from the environment when viper knows them
	for _, b := range AllBackends() {
		for _, field := range []string{"driver", "connection_string", "command_timeout"} {
			if err := v.BindEnv("backends." + b.Key() + "." + field); err != nil {
				return nil, err
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		name := opts.ConfigName
		if name == "" {
			name = DefaultConfigName
		}
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		paths := opts.ConfigPaths
		if len(paths) == 0 {
			paths = []string{".", "./config"}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	s := &Settings{v: v}
	s.current.Store(cfg)
	return s, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return &cfg, nil
}

// WithLogger attaches a logger used to report reloads.
// This method uses the builder pattern and returns the settings for method chaining.
func (s *Settings) WithLogger(logger Logger) *Settings {
	s.logger = logger
	return s
}

// Current returns the active snapshot.
func (s *Settings) Current() Config {
	return *s.current.Load()
}

// Reload re-reads the settings file. An invalid file leaves the active
// snapshot in place and returns the error.
func (s *Settings) Reload() error {
	if s.v == nil {
		return nil
	}
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	cfg, err := decode(s.v)
	if err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}

// Watch reloads the settings whenever the settings file changes, so rotated
// connection strings apply without a restart. It does nothing for settings
// created by NewSettings or loaded without a file.
func (s *Settings) Watch() {
	if s.v == nil || s.v.ConfigFileUsed() == "" {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		ctx := context.Background()
		if err := s.Reload(); err != nil {
			if s.logger != nil {
				s.logger.WarnWithContext(ctx, "ignoring invalid database settings", err, map[string]interface{}{
					"file": e.Name,
				})
			}
			return
		}
		if s.logger != nil {
			s.logger.InfoWithContext(ctx, "database settings reloaded", nil, map[string]interface{}{
				"file": e.Name,
			})
		}
	})
	s.v.WatchConfig()
}

// RetryInterval is the circuit breaker cooldown shared by every backend.
func (s *Settings) RetryInterval() time.Duration {
	return s.current.Load().RetryInterval
}

// DriverKind returns the configured driver of b.
func (s *Settings) DriverKind(b Backend) string {
	return s.current.Load().backend(b).Driver
}

// ConnectionStringGetter returns a getter reading b's connection string from
// the active snapshot on every call.
func (s *Settings) ConnectionStringGetter(b Backend) func() string {
	return func() string {
		return s.current.Load().backend(b).ConnectionString
	}
}

// CommandTimeoutGetter returns a getter for b's command timeout, falling
// back to the default timeout when b has none.
func (s *Settings) CommandTimeoutGetter(b Backend) func() time.Duration {
	return func() time.Duration {
		cfg := s.current.Load()
		if t := cfg.backend(b).CommandTimeout; t > 0 {
			return t
		}
		return cfg.DefaultCommandTimeout
	}
}

// Resolvers builds the table NewRegistry consumes, binding every backend to
// the driver registered for its driver kind.
func (s *Settings) Resolvers(drivers map[string]database.Driver) (map[Backend]Resolver, error) {
	resolvers := make(map[Backend]Resolver, backendCount)
	for _, b := range AllBackends() {
		kind := s.DriverKind(b)
		driver, ok := drivers[kind]
		if !ok || driver == nil {
			return nil, fmt.Errorf("%w: no %s driver for %s", ErrInvalidSettings, kind, b)
		}
		resolvers[b] = Resolver{
			ConnectionString: s.ConnectionStringGetter(b),
			CommandTimeout:   s.CommandTimeoutGetter(b),
			Driver:           driver,
		}
	}
	return resolvers, nil
}
