package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	def := defaultAppConfig()
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, SessionBackendSQLite, cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Session.PurgeInterval)
	assert.Equal(t, "tracker:", cfg.Redis.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/tracker/tracker.db
server:
  addr: 0.0.0.0:9000
  secure_cookies: false
session:
  backend: redis
  purge_interval: 15m
redis:
  addr: cache:6379
  db: 2
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/tracker/tracker.db", cfg.Database.Path)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.False(t, cfg.Server.SecureCookies)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Session.PurgeInterval)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "tracker:", cfg.Redis.Prefix, "unset keys keep defaults")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TRACKER_SERVER_ADDR", "127.0.0.1:7000")
	t.Setenv("TRACKER_SESSION_PURGE_INTERVAL", "5m")
	t.Setenv("TRACKER_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Session.PurgeInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TRACKER_SESSION_BACKEND", "memcached")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcached")
}

func TestValidate(t *testing.T) {
	cfg := defaultAppConfig()
	require.NoError(t, cfg.Validate())

	cfg.Session.PurgeInterval = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = defaultAppConfig()
	cfg.Database.Path = " "
	assert.Error(t, cfg.Validate())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Server.Addr = "localhost:8181"
	cfg.Session.Backend = SessionBackendRedis

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8181", loaded.Server.Addr)
	assert.Equal(t, SessionBackendRedis, loaded.Session.Backend)
}
