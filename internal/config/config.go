package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m"
// or "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the daemon configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Backend  BackendConfig  `yaml:"backend"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file. Empty selects the default under
	// the user's home directory.
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Dir is the directory for rotating log files. Empty disables file
	// logging.
	Dir string `yaml:"dir"`

	// Level is the log level: trace, debug, info, warn, error, critical.
	Level string `yaml:"level"`
}

// RefreshConfig tunes the refresh coordinator and the daemon's sweeps.
type RefreshConfig struct {
	// AutoRefreshInterval is how long a completed mailbox refresh stays
	// fresh.
	AutoRefreshInterval Duration `yaml:"auto_refresh_interval"`

	// StaleSweepInterval is how often the daemon checks mailboxes for
	// staleness.
	StaleSweepInterval Duration `yaml:"stale_sweep_interval"`

	// SendSweepInterval is how often the daemon flushes pending outgoing
	// messages for all accounts.
	SendSweepInterval Duration `yaml:"send_sweep_interval"`
}

// BackendConfig tunes the simulated backend.
type BackendConfig struct {
	// StepDelay is the pause between simulated progress reports.
	StepDelay Duration `yaml:"step_delay"`

	// MidTicks is how many intermediate progress reports a simulated
	// refresh emits.
	MidTicks int `yaml:"mid_ticks"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Refresh: RefreshConfig{
			AutoRefreshInterval: Duration(5 * time.Minute),
			StaleSweepInterval:  Duration(time.Minute),
			SendSweepInterval:   Duration(time.Minute),
		},
		Backend: BackendConfig{
			StepDelay: Duration(250 * time.Millisecond),
			MidTicks:  3,
		},
	}
}

// Load loads configuration from a YAML file, applying defaults for any
// omitted fields. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "critical": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Refresh.AutoRefreshInterval <= 0 {
		return fmt.Errorf("auto_refresh_interval must be positive")
	}
	if c.Refresh.StaleSweepInterval <= 0 {
		return fmt.Errorf("stale_sweep_interval must be positive")
	}
	if c.Refresh.SendSweepInterval <= 0 {
		return fmt.Errorf("send_sweep_interval must be positive")
	}

	if c.Backend.StepDelay < 0 {
		return fmt.Errorf("step_delay must not be negative")
	}
	if c.Backend.MidTicks < 0 {
		return fmt.Errorf("mid_ticks must not be negative")
	}

	return nil
}
