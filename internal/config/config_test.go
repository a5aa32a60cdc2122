package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POLICY_SEED", "")
	t.Setenv("ACTIONS_PER_DAY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 2, cfg.ActionsPerDay)
	assert.Nil(t, cfg.PolicySeed)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_MySQLRequiresConnectionVars(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoad_PolicySeed(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POLICY_SEED", "1234")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.PolicySeed)
	assert.Equal(t, int64(1234), *cfg.PolicySeed)

	t.Setenv("POLICY_SEED", "abc")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_ActionsPerDay(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")

	for _, v := range []string{"0", "1", "5", "-2"} {
		t.Setenv("ACTIONS_PER_DAY", v)
		_, err := Load()
		assert.Error(t, err, "ACTIONS_PER_DAY=%s", v)
	}
	for _, v := range []string{"2", "4", "24"} {
		t.Setenv("ACTIONS_PER_DAY", v)
		_, err := Load()
		assert.NoError(t, err, "ACTIONS_PER_DAY=%s", v)
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "off")
	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
