package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PRICESCANNER_API_BASE_URL", "http://prices.local:8000/")
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, "http://prices.local:8000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HealthInterval)
	assert.Equal(t, 30*time.Second, cfg.ProductCacheTTL)
	assert.False(t, cfg.SecureCookies)
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("PRICESCANNER_STORAGE_DRIVER", "Redis")
	t.Setenv("PRICESCANNER_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PRICESCANNER_API_TIMEOUT", "3s")
	t.Setenv("PRICESCANNER_SECURE_COOKIES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageRedis, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.True(t, cfg.SecureCookies)
}

func TestLoad_MissingAPIBaseURL(t *testing.T) {
	t.Setenv("PRICESCANNER_API_BASE_URL", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver": {"PRICESCANNER_STORAGE_DRIVER": "mongo"},
		"redis sans url": {"PRICESCANNER_STORAGE_DRIVER": "redis"},
		"relative api":   {"PRICESCANNER_API_BASE_URL": "prices.local"},
		"zero watch":     {"PRICESCANNER_WATCH_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
