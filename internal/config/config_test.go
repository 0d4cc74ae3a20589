package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(env map[string]string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range env {
		v.Set(k, val)
	}
	return v
}

func required() map[string]string {
	return map[string]string{
		"APP_NAME":       "fdeworld",
		"APP_ENV":        "development",
		"HTTP_PORT":      "8080",
		"SESSION_SECRET": "s3cret",
	}
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(required()))
	require.NoError(t, err)

	assert.Equal(t, "data/jobs.db", cfg.Database.Path)
	assert.Equal(t, time.Second, cfg.Database.FlushInterval)
	assert.Equal(t, 4096, cfg.Database.SyncMinBytes)
	assert.Equal(t, 600*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 512, cfg.Cache.Size)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Auth.AuthRatePerMinute)
	assert.Equal(t, "@every 30s", cfg.Scheduler.FlushEvery)
	assert.Equal(t, "@hourly", cfg.Scheduler.TokenPurgeEvery)
	assert.False(t, cfg.App.IsProduction())
}

func TestFromViper_MissingRequired(t *testing.T) {
	env := required()
	delete(env, "SESSION_SECRET")
	delete(env, "HTTP_PORT")

	_, err := FromViper(newViper(env))
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestFromViper_Overrides(t *testing.T) {
	env := required()
	env["REDIS_TTL"] = "90s"
	env["DB_FLUSH_INTERVAL"] = "250ms"
	env["PUBLIC_BASE_URL"] = "https://fde.test/"
	env["APP_ENV"] = "production"

	cfg, err := FromViper(newViper(env))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.FlushInterval)
	assert.Equal(t, "https://fde.test", cfg.App.PublicBaseURL)
	assert.True(t, cfg.App.IsProduction())
}

func TestFromViper_InvalidValues(t *testing.T) {
	env := required()
	env["CACHE_SIZE"] = "lots"
	env["SESSION_TTL"] = "forever"

	_, err := FromViper(newViper(env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_SIZE")
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	for k, v := range required() {
		t.Setenv(k, v)
	}
	t.Setenv("DB_PATH", "/tmp/fde.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fde.db", cfg.Database.Path)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
}

func TestAuthConfig_AdminSecrets(t *testing.T) {
	a := AuthConfig{SyncToken: "sync", SyncTokenBcrypt: "$2a$hash"}
	plain, hash := a.AdminSecrets()
	assert.Equal(t, "sync", plain)
	assert.Equal(t, "$2a$hash", hash)

	a.AdminToken = "admin"
	plain, hash = a.AdminSecrets()
	assert.Equal(t, "admin", plain)
	assert.Empty(t, hash)
}
