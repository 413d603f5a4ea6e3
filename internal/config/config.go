package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Webhooks WebhooksConfig `mapstructure:"webhooks"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	HTTPPort int `mapstructure:"http_port"`
	// DefaultHostname is the hostname local development maps to and the only
	// hostname allowed to fall back to any active domain during resolution.
	DefaultHostname string `mapstructure:"default_hostname"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// AuthConfig holds admin authentication settings
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// CaptchaConfig holds reCAPTCHA settings. An empty secret disables verification.
type CaptchaConfig struct {
	Secret    string  `mapstructure:"secret"`
	MinScore  float64 `mapstructure:"min_score"`
	VerifyURL string  `mapstructure:"verify_url"`
}

// NotifyConfig holds lead notification settings
type NotifyConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`

	TwilioAccountSID string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFromNumber string `mapstructure:"twilio_from_number"`
}

// WebhooksConfig holds lead fan-out settings
type WebhooksConfig struct {
	ZapierURL string `mapstructure:"zapier_url"`
	Timeout   string `mapstructure:"timeout"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.default_hostname", "bendhomes.us")

	// Database defaults (SQLite for easier local development)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.database", "porchlight.db")
	// PostgreSQL defaults (if driver is set to postgres)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.username", "porchlight")
	viper.SetDefault("database.ssl_mode", "disable")

	// Auth defaults
	viper.SetDefault("auth.admin_email", "admin@example.com")
	viper.SetDefault("auth.admin_password", "change-me-please") // Change in production!

	// Captcha defaults
	viper.SetDefault("captcha.min_score", 0.5)
	viper.SetDefault("captcha.verify_url", "https://www.google.com/recaptcha/api/siteverify")

	// Webhook defaults
	viper.SetDefault("webhooks.timeout", "15s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
