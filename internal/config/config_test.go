package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_DefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Server.StorageDriver)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, 8, cfg.Notifications.FanoutConcurrency)
}

func TestLoadConfig_FileThenEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: "9090"
  storage_driver: postgres
  cors_origins: ["http://a.example"]
database:
  host: db
jwt:
  secret: from-file
redis:
  enabled: true
  rate_limit: 5
  rate_window: 30s
`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("CORS_ORIGINS", "http://b.example, http://c.example,")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, StoragePostgres, cfg.Server.StorageDriver)
	assert.Equal(t, []string{"http://b.example", "http://c.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RateWindow())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing secret", yaml: "server:\n  port: \"1\"\n"},
		{name: "unknown driver", yaml: "server:\n  storage_driver: mongo\njwt:\n  secret: s\n"},
		{name: "bad token ttl", yaml: "jwt:\n  secret: s\n  access_token_expiration: soon\n"},
		{name: "bad rate window", yaml: "jwt:\n  secret: s\nredis:\n  enabled: true\n  rate_window: often\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.yaml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "REGISTRAR_TEST_DOTENV=loaded\n")
	t.Setenv("REGISTRAR_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("REGISTRAR_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "loaded", os.Getenv("REGISTRAR_TEST_DOTENV"))
}
