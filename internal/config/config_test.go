package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  env: production
  port: 9001
  shutdown_timeout: 5s
mongo:
  uri: mongodb://db:27017
  db: school
jwt:
  hs_secret: topsecret
messaging:
  admin_inbox_id: school_admin_inbox
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "9001", cfg.App.PortString())
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeoutDuration())
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "conversations", cfg.Mongo.Collection, "defaults survive partial config")
	assert.Equal(t, "school_admin_inbox", cfg.Messaging.AdminInboxID)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, "app:\n  port: 9001\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "jwt:\n  hs_secret: fromfile\n")
	t.Setenv("APP_PORT", "7777")
	t.Setenv("JWT_HS_SECRET", "fromenv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.App.Port)
	assert.Equal(t, "fromenv", cfg.JWT.HSSecret)
}

func TestDurationFallback(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("3s", time.Minute))
	assert.Equal(t, time.Minute, Duration("bogus", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
}
