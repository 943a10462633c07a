package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: 0123456789abcdef\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Address())
	assert.Equal(t, StoreMongoDB, cfg.Database.Type)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.Equal(t, "blogging_platform", cfg.Database.Name)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.EnforceOwnership)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
  allowed_origins: ["http://localhost:3000"]
database:
  type: postgres
  uri: postgres://blog@localhost/blog
  timeout: 3s
auth:
  jwt_secret: 0123456789abcdef
  token_ttl: 0s
  enforce_ownership: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, StorePostgres, cfg.Database.Type)
	assert.Equal(t, 3*time.Second, cfg.Database.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.EnforceOwnership)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: 0123456789abcdef\n")
	t.Setenv("BLOG_AUTH_JWT_SECRET", "from-env-secret-value")
	t.Setenv("BLOG_DATABASE_TYPE", "memory")
	t.Setenv("BLOG_SERVER_PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env-secret-value", cfg.Auth.JWTSecret)
	assert.Equal(t, StoreMemory, cfg.Database.Type)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: short\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	path := writeConfig(t, "database:\n  type: couchdb\nauth:\n  jwt_secret: 0123456789abcdef\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "couchdb")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateBcryptCost(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: "1"},
		Database: DatabaseConfig{Type: StoreMemory, Timeout: time.Second},
		Auth:     AuthConfig{JWTSecret: "0123456789abcdef", BcryptCost: 50},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auth.BcryptCost = 12
	assert.NoError(t, cfg.Validate())
}
