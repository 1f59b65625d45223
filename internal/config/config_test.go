package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBotEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("API_BASE_URL", "http://localhost:8000")
}

func TestLoadBotDefaults(t *testing.T) {
	setBotEnv(t)

	cfg, err := LoadBot()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.OrderTimeout)
	assert.Equal(t, 720*time.Hour, cfg.StateTTL)
	assert.Equal(t, 60, cfg.PollTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoadBotOverrides(t *testing.T) {
	setBotEnv(t)
	t.Setenv("ADMIN_IDS", "1,2,3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := LoadBot()
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, cfg.AdminIDs)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadBotValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"TELEGRAM_TOKEN": ""}},
		{name: "order timeout not longer than reads", env: map[string]string{"ORDER_TIMEOUT": "10s"}},
		{name: "zero read timeout", env: map[string]string{"READ_TIMEOUT": "0s"}},
		{name: "zero poll timeout", env: map[string]string{"POLL_TIMEOUT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBotEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadBot()
			assert.Error(t, err)
		})
	}
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := LoadAPI()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "host=db port=5432 user=shop password=secret dbname=shop sslmode=disable", cfg.Database.DSN())
}

func TestLoadAPIRequiresDatabase(t *testing.T) {
	t.Setenv("DB_HOST", "")
	_, err := LoadAPI()
	assert.Error(t, err)
}
