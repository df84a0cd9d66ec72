package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "DATABASE_URL", "DB_LOG_LEVEL", "REDIS_URL", "JWT_SECRET", "TOKEN_TTL",
		"SERVER_PORT", "APP_ENV", "LOG_LEVEL", "CACHE_TTL", "NOTIFY_URL", "NOTIFY_USERNAME",
		"NOTIFY_PASSWORD", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Hour, cfg.TokenLifetime())
	assert.Equal(t, time.Minute, cfg.CacheLifetime())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server_port: \"9000\"\njwt_secret: from-yaml\ncache_ttl: 120\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 120, cfg.CacheTTL)
	assert.Equal(t, "warn", cfg.DBLogLevel)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.ServerPort)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3600, cfg.TokenTTL)
}
