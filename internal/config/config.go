package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Display     DisplayPolicy     `yaml:"display"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Daemon      DaemonConfig      `yaml:"daemon"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// PersistenceConfig locates the durable record of the display state that was
// active before displayctl touched it. A ".db"/".sqlite" extension selects
// the SQLite backend, anything else the flat-file backend.
type PersistenceConfig struct {
	Path string `yaml:"path"`
}

// DaemonConfig controls the long-running daemon mode.
type DaemonConfig struct {
	// TopologySweepInterval is how often the daemon re-enumerates display
	// devices to log hotplug changes. Zero disables the sweep.
	TopologySweepInterval Duration `yaml:"topology_sweep_interval"`

	// MetricsListenAddr is the address for the Prometheus scrape endpoint.
	// Empty disables the metrics server.
	MetricsListenAddr string `yaml:"metrics_listen_addr,omitempty"`

	// WatchConfig re-initializes the orchestrator when the config file changes.
	WatchConfig bool `yaml:"watch_config"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Display: DisplayPolicy{
			DevicePrep:        DevicePrepDisabled,
			ResolutionOption:  ResolutionDisabled,
			RefreshRateOption: RefreshRateDisabled,
			HdrOption:         HdrDisabled,
		},
		Persistence: PersistenceConfig{Path: "display_state.json"},
		Daemon: DaemonConfig{
			TopologySweepInterval: Duration(5 * time.Minute),
			WatchConfig:           true,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Load loads configuration from the specified file.
// A .env file in the working directory is applied first (without overriding
// the process environment), and ${VAR} references in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").Build()
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize canonicalizes all enum-valued fields.
func (c *Config) Normalize() {
	c.Display.Normalize()
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Validate checks cross-field invariants that normalization cannot fix.
func (c *Config) Validate() error {
	if c.Persistence.Path == "" {
		return ferrors.ValidationError("persistence path must not be empty").Build()
	}
	if c.Daemon.TopologySweepInterval < 0 {
		return ferrors.ValidationError("topology sweep interval cannot be negative").Build()
	}
	if c.Display.ResolutionOption == ResolutionManual && c.Display.ManualResolution == "" {
		return ferrors.ValidationError("manual resolution mode requires manual_resolution to be set").Build()
	}
	if c.Display.RefreshRateOption == RefreshRateManual && c.Display.ManualRefreshRate == "" {
		return ferrors.ValidationError("manual refresh rate mode requires manual_refresh_rate to be set").Build()
	}
	return nil
}

// Save writes the configuration to the given path. Used by "displayctl init".
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to marshal config").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write config file").Build()
	}
	return nil
}
