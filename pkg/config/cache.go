package config

import (
	"fmt"
	"log/slog"
	"time"

	"cachegate/pkg/cache"
	"cachegate/pkg/clock"
)

// CacheConfig contains the configuration for the caching subsystem.
type CacheConfig struct {
	// Timezone identifies the zone all entry timestamps use.
	Timezone string

	// DefaultTTL applies to entries inserted without an explicit TTL.
	// Zero means entries do not expire by default.
	DefaultTTL time.Duration

	// EvictionPolicy names the policy applied when a storage is full
	// (LRU, LFU, FIFO). Empty means no policy.
	EvictionPolicy string

	// MaxEntries bounds auto-created storages. Zero means unbounded.
	MaxEntries int

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

// DefaultCacheConfig returns the default configuration: UTC, no TTL, no
// eviction policy, unbounded, metrics/events/auto-creation enabled.
func DefaultCacheConfig() *CacheConfig {
	config := &CacheConfig{
		EnableMetrics:      true,
		EnableEvents:       true,
		EnableAutoCreation: true,
	}
	config.ApplyDefaults()
	return config
}

// Validate checks if the CacheConfig is valid.
//
// Returns an error if any configuration values are invalid.
func (c *CacheConfig) Validate() error {
	if _, err := clock.LoadZone(c.Timezone); err != nil {
		return fmt.Errorf("Timezone is invalid: %w", err)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("DefaultTTL must be non-negative, got %s", c.DefaultTTL)
	}
	if c.EvictionPolicy != "" {
		if _, err := cache.ParseEvictionPolicy(c.EvictionPolicy); err != nil {
			return fmt.Errorf("EvictionPolicy is invalid: %w", err)
		}
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("MaxEntries must be non-negative, got %d", c.MaxEntries)
	}
	return nil
}

// ApplyDefaults sets an empty Timezone to "UTC" and clamps a negative
// DefaultTTL or MaxEntries to zero. Other invalid values, such as an unknown
// zone or eviction policy name, are left unchanged.
//
// This ensures the caching subsystem can function even if the
// configuration is incomplete, for instance when a caller hand-constructs
// the struct or loads a partial YAML document.
func (c *CacheConfig) ApplyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = 0
	}
	if c.MaxEntries < 0 {
		c.MaxEntries = 0
	}
}

// LoadCacheConfig loads the cache configuration from the environment.
//
// Properties (dotted keys under the given prefix, resolved per EnvKey):
//   - <prefix>.cache.timezone: zone identifier (default: UTC)
//   - <prefix>.cache.ttl: default TTL, seconds or duration (default: none)
//   - <prefix>.cache.eviction-policy: LRU|LFU|FIFO (default: none)
//   - <prefix>.cache.max-entries: positive int (default: unbounded)
//   - <prefix>.cache.enable.metrics: bool (default: true)
//   - <prefix>.cache.enable.events: bool (default: true)
//   - <prefix>.cache.enable.auto-creation: bool (default: true)
//   - <prefix>.cache.enable.fail-on-missing: bool (default: false)
//
// Invalid values produce warnings and fall back to defaults; loading never
// fails.
func LoadCacheConfig(prefix string) *CacheConfig {
	return LoadCacheConfigFrom(EnvSource{}, prefix)
}

// LoadCacheConfigFrom loads the cache configuration from the given source.
func LoadCacheConfigFrom(source Source, prefix string) *CacheConfig {
	cfg := DefaultCacheConfig()
	base := prefix + ".cache."

	timezone := GetString(source, base+"timezone", "UTC")
	if _, err := clock.LoadZone(timezone); err != nil {
		slog.Warn("invalid cache timezone, using UTC",
			slog.String("value", timezone),
			slog.String("error", err.Error()))
		timezone = "UTC"
	}
	cfg.Timezone = timezone

	ttl := GetDuration(source, base+"ttl", 0)
	if err := ValidateNonNegativeDuration(ttl); err != nil {
		slog.Warn("invalid cache TTL, ignoring",
			slog.String("value", ttl.String()),
			slog.String("error", err.Error()))
		ttl = 0
	}
	cfg.DefaultTTL = ttl

	policy := GetString(source, base+"eviction-policy", "")
	if policy != "" {
		if _, err := cache.ParseEvictionPolicy(policy); err != nil {
			slog.Warn("invalid cache eviction policy, ignoring",
				slog.String("value", policy),
				slog.String("error", err.Error()))
			policy = ""
		}
	}
	cfg.EvictionPolicy = policy

	maxEntries := GetInt(source, base+"max-entries", 0)
	if maxEntries < 0 {
		slog.Warn("invalid cache max entries, ignoring",
			slog.Int("value", maxEntries))
		maxEntries = 0
	}
	cfg.MaxEntries = maxEntries

	cfg.EnableMetrics = GetBool(source, base+"enable.metrics", true)
	cfg.EnableEvents = GetBool(source, base+"enable.events", true)
	cfg.EnableAutoCreation = GetBool(source, base+"enable.auto-creation", true)
	cfg.EnableFailOnMissing = GetBool(source, base+"enable.fail-on-missing", false)

	// Validate the entire configuration
	if err := cfg.Validate(); err != nil {
		slog.Warn("cache configuration validation failed, applying defaults",
			slog.String("error", err.Error()))
		cfg.ApplyDefaults()
	}

	return cfg
}

// StorageConfig converts the loaded configuration into the memory storage
// form applied to auto-created caches.
func (c *CacheConfig) StorageConfig() cache.MemoryStorageConfig {
	cfg := cache.DefaultMemoryStorageConfig()
	cfg.DefaultTTL = c.DefaultTTL
	cfg.MaxEntries = c.MaxEntries
	cfg.EnableMetrics = c.EnableMetrics
	cfg.EnableEvents = c.EnableEvents

	if zone, err := clock.LoadZone(c.Timezone); err == nil {
		cfg.Zone = zone
	}
	if c.EvictionPolicy != "" {
		if policy, err := cache.ParseEvictionPolicy(c.EvictionPolicy); err == nil {
			cfg.EvictionPolicy = policy
		}
	}
	return cfg
}
