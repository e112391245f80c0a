// Package config defines the daemon configuration and how it is loaded.
//
// Conventions:
// - New() returns a Config holding every default.
// - Load(ctx) layers .env, an optional YAML file and LABSYNC_* variables on top.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig so callers can errors.Is them.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ServerURL is the labsync server, e.g. "https://lab.example.com".
	// Empty keeps whatever the session persisted last time.
	ServerURL string `koanf:"server_url"`

	// APIKey authenticates requests when nobody is signed in.
	APIKey string `koanf:"api_key"`

	// StorageDriver selects the session store: toml, sqlite, postgres or memory.
	StorageDriver string `koanf:"storage_driver"`

	// StorageDSN is a file path for toml and sqlite, a connection string for postgres.
	StorageDSN string `koanf:"storage_dsn"`

	// RequestTimeout bounds every HTTP request. Zero disables the timeout.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// PingPeriod is the realtime keep-alive interval. Zero disables pings.
	PingPeriod time.Duration `koanf:"ping_period"`

	SocketAutoSwitching bool `koanf:"socket_auto_switching"`
	SharingDefault      bool `koanf:"sharing_default"`

	// AutoCheckin checks in when the check-in-event region is entered.
	AutoCheckin bool `koanf:"auto_checkin"`

	// RegionQueueSize bounds pending location signals.
	RegionQueueSize int `koanf:"region_queue_size"`

	// MetricsAddr serves /metrics and /healthz when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Topics lists realtime topics to follow: events, location, lights, food,
	// equipment, voting.
	Topics []string `koanf:"topics"`
}

var validDrivers = map[string]bool{"toml": true, "sqlite": true, "postgres": true, "memory": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		StorageDriver:   "toml",
		PingPeriod:      25 * time.Second,
		RegionQueueSize: 64,
		Topics:          []string{"events"},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if !validDrivers[strings.ToLower(c.StorageDriver)] {
		return fmt.Errorf("%w: storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if strings.EqualFold(c.StorageDriver, "postgres") && c.StorageDSN == "" {
		return fmt.Errorf("%w: storage_dsn is required for postgres", ErrInvalidConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidConfig)
	}
	if c.PingPeriod < 0 {
		return fmt.Errorf("%w: ping_period must not be negative", ErrInvalidConfig)
	}
	if c.RegionQueueSize <= 0 {
		return fmt.Errorf("%w: region_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
