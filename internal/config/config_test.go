package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "unset falls back to default", value: "", want: 7},
		{name: "valid value is used", value: "3", want: 3},
		{name: "malformed value falls back", value: "three", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_ENV_INT", tt.value)
			}
			require.Equal(t, tt.want, envInt("TEST_ENV_INT", 7))
		})
	}
}

func TestEnvInt64(t *testing.T) {
	t.Run("unset falls back to default", func(t *testing.T) {
		require.Equal(t, int64(1104000), envInt64("TEST_ENV_INT64", 1104000))
	})
	t.Run("valid value is used", func(t *testing.T) {
		t.Setenv("TEST_ENV_INT64", "2205000")
		require.Equal(t, int64(2205000), envInt64("TEST_ENV_INT64", 1104000))
	})
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{name: "unset uses default", def: true, want: true},
		{name: "on enables", value: "on", want: true},
		{name: "false disables", value: "false", def: true, want: false},
		{name: "garbage uses default", value: "maybe", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_ENV_BOOL", tt.value)
			}
			require.Equal(t, tt.want, envBool("TEST_ENV_BOOL", tt.def))
		})
	}
}

func TestLoadPolicyDefaults(t *testing.T) {
	for _, kv := range [][2]string{
		{"APP_ENV", "test"},
		{"APP_PORT", "8080"},
		{"DB_USER", "app"},
		{"DB_HOST", "127.0.0.1"},
		{"DB_PORT", "3306"},
		{"DB_NAME", "events"},
	} {
		t.Setenv(kv[0], kv[1])
	}

	cfg := Load()
	require.Equal(t, 2, cfg.TierLockThreshold)
	require.Equal(t, 2, cfg.OneDayQuota)
	require.Equal(t, 4, cfg.TwoDayQuota)
	require.Equal(t, int64(1104000), cfg.RegNumberBase)
	require.Empty(t, cfg.AdminKeyHash)
	require.Equal(t, 25, cfg.DBMaxOpenConns)
	require.Equal(t, 25, cfg.DBMaxIdleConns)
	require.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	require.Equal(t, 5*time.Second, cfg.DBPingTimeout)
}

func TestLoadPolicyOverrides(t *testing.T) {
	for _, kv := range [][2]string{
		{"APP_ENV", "test"},
		{"APP_PORT", "8080"},
		{"DB_USER", "app"},
		{"DB_HOST", "127.0.0.1"},
		{"DB_PORT", "3306"},
		{"DB_NAME", "events"},
		{"TIER_LOCK_THRESHOLD", "1"},
		{"ONE_DAY_QUOTA", "3"},
		{"TWO_DAY_QUOTA", "6"},
		{"REG_NUMBER_BASE", "2205000"},
	} {
		t.Setenv(kv[0], kv[1])
	}

	cfg := Load()
	require.Equal(t, 1, cfg.TierLockThreshold)
	require.Equal(t, 3, cfg.OneDayQuota)
	require.Equal(t, 6, cfg.TwoDayQuota)
	require.Equal(t, int64(2205000), cfg.RegNumberBase)
}

func TestLoadRateLimitConfigFloors(t *testing.T) {
	for _, kv := range [][2]string{
		{"RATE_LIMIT_CAPACITY", "0"},
		{"RATE_LIMIT_REFILL_TOKENS", "-3"},
		{"RATE_LIMIT_REFILL_INTERVAL", "0s"},
		{"RATE_LIMIT_TTL", "1s"},
	} {
		t.Setenv(kv[0], kv[1])
	}

	cfg := LoadRateLimitConfig()
	require.Equal(t, 1, cfg.Capacity)
	require.Equal(t, 1, cfg.RefillTokens)
	require.Equal(t, time.Second, cfg.RefillInterval)
	require.Equal(t, 5*time.Second, cfg.TTL, "TTL must cover several refill intervals")
}

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, 5*time.Second, cfg.TTL)
	require.Equal(t, "cache", cfg.Prefix)
	require.Equal(t, 1048576, cfg.MaxBodyBytes)
}
