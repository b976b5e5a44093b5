package config

import "time"

// CacheConfig defines settings for the seat-map response cache.  Only the
// read-only seat views are cached; a short TTL keeps the maps close to the
// live booking state without hammering the database during seat picking.
// When Enabled is false or no Redis client is configured, caching is
// disabled entirely.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 5*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1048576),
	}
}
