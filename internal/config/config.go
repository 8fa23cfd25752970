package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Email  EmailConfig
	DBPath string `envconfig:"LARDER_DB_PATH" default:"larder.db"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"LARDER_PORT" default:"8080"`
	BaseURL         string        `envconfig:"LARDER_BASE_URL" default:"http://localhost:8080"`
	ReadTimeout     time.Duration `envconfig:"LARDER_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"LARDER_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"LARDER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"LARDER_SHUTDOWN_TIMEOUT" default:"5s"`
}

type LogConfig struct {
	Level  string `envconfig:"LARDER_LOG_LEVEL" default:"info"`
	Format string `envconfig:"LARDER_LOG_FORMAT" default:"text"`
}

// EmailConfig holds Postmark settings for password-reset mail. Leave the
// token empty to disable outbound mail.
type EmailConfig struct {
	PostmarkToken string `envconfig:"LARDER_POSTMARK_TOKEN" default:""`
	FromAddress   string `envconfig:"LARDER_EMAIL_FROM" default:""`
}

// Load reads configuration from the environment, honoring a .env file if one
// exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}
