package config

import (
	"fmt"
	"log/slog"

	"cachegate/pkg/clock"
	"cachegate/pkg/ratelimit"
)

// RateLimitSettings contains the configuration for the rate-limiting
// subsystem.
type RateLimitSettings struct {
	// Timezone identifies the zone window timestamps use.
	Timezone string

	// EnableMetrics controls counter accumulation.
	EnableMetrics bool

	// EnableEvents controls event emission.
	EnableEvents bool

	// EnableAutoCreation lets managers create storages on demand.
	EnableAutoCreation bool

	// EnableFailOnMissing makes manager lookups fail instead of returning
	// nothing.
	EnableFailOnMissing bool
}

// DefaultRateLimitSettings returns the default configuration: UTC,
// metrics/events/auto-creation enabled.
func DefaultRateLimitSettings() *RateLimitSettings {
	settings := &RateLimitSettings{
		EnableMetrics:      true,
		EnableEvents:       true,
		EnableAutoCreation: true,
	}
	settings.ApplyDefaults()
	return settings
}

// Validate checks if the RateLimitSettings are valid.
//
// Returns an error if any configuration values are invalid.
func (c *RateLimitSettings) Validate() error {
	if _, err := clock.LoadZone(c.Timezone); err != nil {
		return fmt.Errorf("Timezone is invalid: %w", err)
	}
	return nil
}

// ApplyDefaults sets safe default values for any missing configuration
// values.
//
// This ensures the rate-limiting subsystem can function even if the
// configuration is incomplete.
func (c *RateLimitSettings) ApplyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// LoadRateLimitSettings loads the rate limit configuration from the
// environment.
//
// Properties (dotted keys under the given prefix, resolved per EnvKey):
//   - <prefix>.ratelimit.timezone: zone identifier (default: UTC)
//   - <prefix>.ratelimit.enable.metrics: bool (default: true)
//   - <prefix>.ratelimit.enable.events: bool (default: true)
//   - <prefix>.ratelimit.enable.auto-creation: bool (default: true)
//   - <prefix>.ratelimit.enable.fail-on-missing: bool (default: false)
//
// Invalid values produce warnings and fall back to defaults; loading never
// fails.
func LoadRateLimitSettings(prefix string) *RateLimitSettings {
	return LoadRateLimitSettingsFrom(EnvSource{}, prefix)
}

// LoadRateLimitSettingsFrom loads the rate limit configuration from the
// given source.
func LoadRateLimitSettingsFrom(source Source, prefix string) *RateLimitSettings {
	cfg := DefaultRateLimitSettings()
	base := prefix + ".ratelimit."

	timezone := GetString(source, base+"timezone", "UTC")
	if _, err := clock.LoadZone(timezone); err != nil {
		slog.Warn("invalid rate limit timezone, using UTC",
			slog.String("value", timezone),
			slog.String("error", err.Error()))
		timezone = "UTC"
	}
	cfg.Timezone = timezone

	cfg.EnableMetrics = GetBool(source, base+"enable.metrics", true)
	cfg.EnableEvents = GetBool(source, base+"enable.events", true)
	cfg.EnableAutoCreation = GetBool(source, base+"enable.auto-creation", true)
	cfg.EnableFailOnMissing = GetBool(source, base+"enable.fail-on-missing", false)

	// Validate the entire configuration
	if err := cfg.Validate(); err != nil {
		slog.Warn("rate limit configuration validation failed, applying defaults",
			slog.String("error", err.Error()))
		cfg.ApplyDefaults()
	}

	return cfg
}

// StorageConfig converts the loaded configuration into the memory storage
// form applied to auto-created storages.
func (c *RateLimitSettings) StorageConfig() ratelimit.MemoryStorageConfig {
	cfg := ratelimit.DefaultMemoryStorageConfig()
	cfg.EnableMetrics = c.EnableMetrics
	cfg.EnableEvents = c.EnableEvents

	if zone, err := clock.LoadZone(c.Timezone); err == nil {
		cfg.Zone = zone
	}
	return cfg
}
