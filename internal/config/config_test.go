package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "CACHE_BACKEND", "CACHE_TTL", "JWT_SECRET", "WRITE_ROLES", "APP_ENV"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, 120.0, cfg.OverallocatedThreshold)
	assert.Equal(t, 70.0, cfg.UnderutilizedThreshold)
	assert.Equal(t, 30.0, cfg.ImbalanceThreshold)
	assert.Equal(t, 30, cfg.PlanningHorizonDays)
	assert.Equal(t, []string{"admin", "manager", "planner"}, cfg.WriteRoles)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "45")
	t.Setenv("HOLIDAY_TIMEOUT", "500ms")
	t.Setenv("OVERALLOCATED_THRESHOLD", "110.5")
	t.Setenv("WRITE_ROLES", " lead, ,admin ")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.HolidayTimeout)
	assert.Equal(t, 110.5, cfg.OverallocatedThreshold)
	assert.Equal(t, []string{"lead", "admin"}, cfg.WriteRoles)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"cache backend": {"CACHE_BACKEND": "memcached"},
		"thresholds":    {"UNDERUTILIZED_THRESHOLD": "130"},
		"daily hours":   {"DEFAULT_DAILY_HOURS": "25"},
		"horizon":       {"PLANNING_HORIZON_DAYS": "-1"},
		"prod jwt":      {"APP_ENV": "production", "JWT_SECRET": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
