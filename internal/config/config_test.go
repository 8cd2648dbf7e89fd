package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/truber")
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_EXPIRES_MIN", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DB_LOG_LEVEL", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("COOKIE_SECURE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "postgres://localhost/truber", cfg.DBDSN)
	assert.Equal(t, 10080, cfg.JWTExpiresMin)
	assert.Equal(t, "warn", cfg.DBLogLevel)
	assert.Equal(t, "truber:job-requests", cfg.EventsChannel)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.AllowsAnyOrigin())
}

func TestLoad_FallsBackToDBDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DSN", "host=db dbname=truber")
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()
	assert.Equal(t, "host=db dbname=truber", cfg.DBDSN)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/truber")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("JWT_EXPIRES_MIN", "60")
	t.Setenv("DB_LOG_LEVEL", "INFO")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("COOKIE_SECURE", "TRUE")

	cfg := Load()
	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, 60, cfg.JWTExpiresMin)
	assert.Equal(t, "info", cfg.DBLogLevel)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.AllowsAnyOrigin())
}

func TestLoad_PanicsWithoutSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/truber")
	t.Setenv("JWT_SECRET", "")

	require.PanicsWithValue(t, "missing env: JWT_SECRET", func() { Load() })
}
