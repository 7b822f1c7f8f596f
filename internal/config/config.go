// Package config loads and validates the Latchkey runtime configuration.
//
// Configuration comes from three layers, later layers winning:
// built-in defaults, an optional JSON config file in the data directory,
// and LATCHKEY_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ConfigFile is the filename looked up inside the data directory.
const ConfigFile = "config.json"

// Config holds all runtime settings for the gatekeeper.
type Config struct {
	// DataDir is where the roster file and the journal database live.
	DataDir string `json:"data_dir"`

	// StartHour and EndHour bound the daily lock window as a half-open
	// interval [StartHour, EndHour) in local hours, 0-23.
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`

	// RetentionDays is how long completion journal entries are kept.
	RetentionDays int `json:"retention_days"`

	// TickInterval is how often the engine re-evaluates on its own.
	// Must be at most one minute so hour-boundary crossings are caught.
	TickInterval time.Duration `json:"tick_interval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:       filepath.Join(home, ".latchkey"),
		StartHour:     6,
		EndHour:       9,
		RetentionDays: 14,
		TickInterval:  time.Minute,
		LogLevel:      "info",
	}
}

// Load reads configuration from the given path, or from the default data
// directory when no path is given. A missing file is not an error: defaults
// plus environment overrides are returned.
func Load(configPath ...string) (Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(cfg.DataDir, ConfigFile)
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return cfg, fmt.Errorf("read config file: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
		applyDefaults(&cfg)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadOrDefault loads configuration, falling back to defaults (still with
// environment overrides applied) when the file is unreadable or malformed.
func LoadOrDefault(configPath ...string) Config {
	cfg, err := Load(configPath...)
	if err != nil {
		fallback := DefaultConfig()
		applyEnvOverrides(&fallback)
		return fallback
	}
	return cfg
}

// WindowValid reports whether the configured lock window can ever match.
// A misconfigured window (start >= end, or hours out of range) is a
// configuration error, not a crash: the gate simply never engages.
func (c Config) WindowValid() bool {
	if c.StartHour < 0 || c.StartHour > 23 {
		return false
	}
	if c.EndHour < 0 || c.EndHour > 23 {
		return false
	}
	return c.StartHour < c.EndHour
}

// Validate returns a descriptive error for settings that degrade behavior.
// Callers log the error and keep running.
func (c Config) Validate() error {
	if !c.WindowValid() {
		return fmt.Errorf("lock window [%d,%d) never matches: need 0 <= start < end <= 23", c.StartHour, c.EndHour)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	if c.TickInterval <= 0 || c.TickInterval > time.Minute {
		return fmt.Errorf("tick_interval must be in (0, 1m], got %s", c.TickInterval)
	}
	return nil
}

// applyDefaults fills zero-valued fields after a partial config file.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = defaults.RetentionDays
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	// StartHour/EndHour deliberately keep their file values even when zero:
	// 0 is a meaningful hour, and an empty window is caught by Validate.
}

// applyEnvOverrides lets LATCHKEY_* environment variables win over the file.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("LATCHKEY")
	v.AutomaticEnv()

	_ = v.BindEnv("data_dir")
	_ = v.BindEnv("start_hour")
	_ = v.BindEnv("end_hour")
	_ = v.BindEnv("retention_days")
	_ = v.BindEnv("tick_interval")
	_ = v.BindEnv("log_level")

	if s := v.GetString("data_dir"); s != "" {
		cfg.DataDir = s
	}
	if s := v.GetString("start_hour"); s != "" {
		cfg.StartHour = v.GetInt("start_hour")
	}
	if s := v.GetString("end_hour"); s != "" {
		cfg.EndHour = v.GetInt("end_hour")
	}
	if n := v.GetInt("retention_days"); n > 0 {
		cfg.RetentionDays = n
	}
	if s := v.GetString("tick_interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.TickInterval = d
		}
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = s
	}
}

// Retention converts the configured retention horizon to a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// UnmarshalJSON accepts tick_interval as a duration string ("1m").
func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	aux := &struct {
		TickInterval string `json:"tick_interval"`
		*alias
	}{
		alias: (*alias)(c),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if aux.TickInterval != "" {
		d, err := time.ParseDuration(aux.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval: %w", err)
		}
		c.TickInterval = d
	}
	return nil
}
