package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, 6, cfg.Password.MinLength)
	assert.Equal(t, 3600, cfg.Security.SessionTimeout)
	assert.Equal(t, 5, cfg.Security.MaxLoginAttempts)
	assert.Equal(t, 900, cfg.Security.LockDuration)
	assert.Equal(t, 2592000, cfg.Security.RememberMeDuration)

	assert.Equal(t, time.Hour, cfg.Security.SessionTimeoutDuration())
	assert.Equal(t, 15*time.Minute, cfg.Security.LockDurationDuration())
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	content := `
port: 9090
data_dir: /var/lib/site
security:
  session_timeout: 60
  max_login_attempts: 3
password_requirements:
  min_length: 10
  require_numbers: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/var/lib/site", cfg.DataDir)
	assert.Equal(t, 60, cfg.Security.SessionTimeout)
	assert.Equal(t, 3, cfg.Security.MaxLoginAttempts)
	assert.Equal(t, 10, cfg.Password.MinLength)
	assert.True(t, cfg.Password.RequireNumbers)

	// Untouched sections keep their defaults.
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, 900, cfg.Security.LockDuration)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SITE_PORT", "7070")
	t.Setenv("SITE_DATA_DIR", "/tmp/records")
	t.Setenv("SITE_TOKEN_SECRET", "hunter2")
	t.Setenv("SITE_LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://fallback")
	t.Setenv("SITE_DATABASE_URL", "postgres://primary")

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "/tmp/records", cfg.DataDir)
	assert.Equal(t, "hunter2", cfg.Security.TokenSecret)
	assert.Equal(t, "debug", cfg.LogLevel)

	// SITE_DATABASE_URL wins over the generic DATABASE_URL.
	assert.Equal(t, "postgres://primary", cfg.DatabaseURL)
}

func TestInvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("SITE_PORT", "not-a-port")

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}
