package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_ValidConfig tests loading a valid configuration
func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  http_port: 9090
  default_hostname: "example.com"

database:
  driver: "sqlite"
  database: "test.db"

auth:
  jwt_secret: "this-is-a-very-secure-jwt-secret-with-at-least-32-characters"
  admin_email: "ops@example.com"
  admin_password: "secure_password"

captcha:
  secret: "recaptcha-secret"
  min_score: 0.7

notify:
  smtp_host: "smtp.example.com"
  smtp_port: 587
  from_email: "leads@example.com"

webhooks:
  zapier_url: "https://hooks.zapier.com/abc"
  timeout: "5s"

logging:
  level: "debug"
  format: "json"
  output: "stdout"
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "example.com", cfg.Server.DefaultHostname)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test.db", cfg.Database.Database)

	assert.Equal(t, "ops@example.com", cfg.Auth.AdminEmail)
	assert.Equal(t, "secure_password", cfg.Auth.AdminPassword)

	assert.Equal(t, "recaptcha-secret", cfg.Captcha.Secret)
	assert.Equal(t, 0.7, cfg.Captcha.MinScore)

	assert.Equal(t, "smtp.example.com", cfg.Notify.SMTPHost)
	assert.Equal(t, 587, cfg.Notify.SMTPPort)

	assert.Equal(t, "https://hooks.zapier.com/abc", cfg.Webhooks.ZapierURL)
	assert.Equal(t, "5s", cfg.Webhooks.Timeout)

	assert.Equal(t, "debug", cfg.Logging.Level)
}

// TestLoad_Defaults tests that defaults fill in omitted settings
func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configFile, []byte("server: {}\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "bendhomes.us", cfg.Server.DefaultHostname)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 0.5, cfg.Captcha.MinScore)
	assert.Equal(t, "https://www.google.com/recaptcha/api/siteverify", cfg.Captcha.VerifyURL)
	assert.Equal(t, "15s", cfg.Webhooks.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoad_MissingFile tests that a missing config file returns an error
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
