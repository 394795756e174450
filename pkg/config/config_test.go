package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "cachegate.cache.ttl", want: "CACHEGATE_CACHE_TTL"},
		{key: "cachegate.cache.max-entries", want: "CACHEGATE_CACHE_MAX_ENTRIES"},
		{key: "cachegate.ratelimit.enable.fail-on-missing", want: "CACHEGATE_RATELIMIT_ENABLE_FAIL_ON_MISSING"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnvKey(tt.key))
	}
}

func TestLoadCacheConfig_Defaults(t *testing.T) {
	cfg := LoadCacheConfigFrom(MapSource{}, "cachegate")

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Zero(t, cfg.DefaultTTL)
	assert.Empty(t, cfg.EvictionPolicy)
	assert.Zero(t, cfg.MaxEntries)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.EnableEvents)
	assert.True(t, cfg.EnableAutoCreation)
	assert.False(t, cfg.EnableFailOnMissing)
}

func TestLoadCacheConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CACHEGATE_CACHE_TIMEZONE", "Asia/Tokyo")
	t.Setenv("CACHEGATE_CACHE_TTL", "120")
	t.Setenv("CACHEGATE_CACHE_EVICTION_POLICY", "lru")
	t.Setenv("CACHEGATE_CACHE_MAX_ENTRIES", "500")
	t.Setenv("CACHEGATE_CACHE_ENABLE_METRICS", "false")
	t.Setenv("CACHEGATE_CACHE_ENABLE_FAIL_ON_MISSING", "true")

	cfg := LoadCacheConfig("cachegate")

	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 2*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, "lru", cfg.EvictionPolicy)
	assert.Equal(t, 500, cfg.MaxEntries)
	assert.False(t, cfg.EnableMetrics)
	assert.True(t, cfg.EnableEvents)
	assert.True(t, cfg.EnableFailOnMissing)
}

func TestLoadCacheConfig_InvalidValuesFallBack(t *testing.T) {
	source := MapSource{
		"cachegate.cache.timezone":        "Mars/Olympus",
		"cachegate.cache.ttl":             "-30",
		"cachegate.cache.eviction-policy": "random",
		"cachegate.cache.max-entries":     "-5",
		"cachegate.cache.enable.metrics":  "maybe",
	}

	cfg := LoadCacheConfigFrom(source, "cachegate")

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Zero(t, cfg.DefaultTTL)
	assert.Empty(t, cfg.EvictionPolicy)
	assert.Zero(t, cfg.MaxEntries)
	assert.True(t, cfg.EnableMetrics)
}

func TestCacheConfig_StorageConfig(t *testing.T) {
	source := MapSource{
		"cachegate.cache.timezone":        "Asia/Tokyo",
		"cachegate.cache.ttl":             "90s",
		"cachegate.cache.eviction-policy": "LFU",
		"cachegate.cache.max-entries":     "10",
	}
	cfg := LoadCacheConfigFrom(source, "cachegate")

	storageCfg := cfg.StorageConfig()
	assert.Equal(t, 90*time.Second, storageCfg.DefaultTTL)
	assert.Equal(t, 10, storageCfg.MaxEntries)
	require.NotNil(t, storageCfg.EvictionPolicy)
	assert.Equal(t, "LFU", storageCfg.EvictionPolicy.Name())
	assert.Equal(t, "Asia/Tokyo", storageCfg.Zone.String())
}

func TestCacheConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CacheConfig)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*CacheConfig) {}},
		{name: "empty timezone resolves to UTC", mutate: func(c *CacheConfig) { c.Timezone = "" }},
		{name: "unknown timezone", mutate: func(c *CacheConfig) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "negative TTL", mutate: func(c *CacheConfig) { c.DefaultTTL = -time.Second }, wantErr: true},
		{name: "unknown eviction policy", mutate: func(c *CacheConfig) { c.EvictionPolicy = "random" }, wantErr: true},
		{name: "valid eviction policy", mutate: func(c *CacheConfig) { c.EvictionPolicy = "lru" }},
		{name: "negative max entries", mutate: func(c *CacheConfig) { c.MaxEntries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCacheConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCacheConfig_ApplyDefaults(t *testing.T) {
	cfg := &CacheConfig{
		DefaultTTL: -time.Second,
		MaxEntries: -5,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Zero(t, cfg.DefaultTTL)
	assert.Zero(t, cfg.MaxEntries)
	require.NoError(t, cfg.Validate())

	// Populated values survive.
	cfg = &CacheConfig{Timezone: "Asia/Tokyo", MaxEntries: 10}
	cfg.ApplyDefaults()
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 10, cfg.MaxEntries)
}

func TestRateLimitSettings_ValidateAndApplyDefaults(t *testing.T) {
	settings := &RateLimitSettings{}
	settings.ApplyDefaults()
	assert.Equal(t, "UTC", settings.Timezone)
	require.NoError(t, settings.Validate())

	settings.Timezone = "Mars/Olympus"
	assert.Error(t, settings.Validate())

	// ApplyDefaults fills blanks, it does not repair bad values.
	settings.ApplyDefaults()
	assert.Equal(t, "Mars/Olympus", settings.Timezone)

	settings.Timezone = "Asia/Tokyo"
	require.NoError(t, settings.Validate())
}

func TestLoadRateLimitSettings(t *testing.T) {
	source := MapSource{
		"cachegate.ratelimit.timezone":        "Asia/Tokyo",
		"cachegate.ratelimit.enable.events":   "false",
		"cachegate.ratelimit.enable.auto-creation": "false",
	}

	cfg := LoadRateLimitSettingsFrom(source, "cachegate")

	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableEvents)
	assert.False(t, cfg.EnableAutoCreation)
	assert.False(t, cfg.EnableFailOnMissing)

	storageCfg := cfg.StorageConfig()
	assert.Equal(t, "Asia/Tokyo", storageCfg.Zone.String())
	assert.False(t, storageCfg.EnableEvents)
	assert.True(t, storageCfg.EnableMetrics)
}

func TestParseYAML(t *testing.T) {
	source, err := ParseYAML([]byte(`
cachegate:
  cache:
    ttl: 60
    eviction-policy: LRU
    enable:
      metrics: false
  ratelimit:
    timezone: UTC
`))
	require.NoError(t, err)

	cfg := LoadCacheConfigFrom(source, "cachegate")
	assert.Equal(t, time.Minute, cfg.DefaultTTL)
	assert.Equal(t, "LRU", cfg.EvictionPolicy)
	assert.False(t, cfg.EnableMetrics)

	settings := LoadRateLimitSettingsFrom(source, "cachegate")
	assert.Equal(t, "UTC", settings.Timezone)
}

func TestParseYAML_Invalid(t *testing.T) {
	_, err := ParseYAML([]byte("cache: [unbalanced"))
	require.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	source := MapSource{
		"seconds":  "90",
		"duration": "1h30m",
		"garbage":  "soon",
	}

	assert.Equal(t, 90*time.Second, GetDuration(source, "seconds", 0))
	assert.Equal(t, 90*time.Minute, GetDuration(source, "duration", 0))
	assert.Equal(t, time.Minute, GetDuration(source, "garbage", time.Minute))
	assert.Equal(t, time.Minute, GetDuration(source, "absent", time.Minute))
}

func TestDurationValidators(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))

	assert.NoError(t, ValidateNonNegativeDuration(0))
	assert.NoError(t, ValidateNonNegativeDuration(time.Second))
	assert.Error(t, ValidateNonNegativeDuration(-time.Second))
}
