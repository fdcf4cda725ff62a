// Package config loads client configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	APIBaseURL     string        `env:"FEELINSIGHT_API_URL" default:"http://localhost:8000/api"`
	TokenPath      string        `env:"FEELINSIGHT_TOKEN_PATH"`
	AuthTimeout    time.Duration `env:"FEELINSIGHT_AUTH_TIMEOUT" default:"10s"`
	RequestTimeout time.Duration `env:"FEELINSIGHT_REQUEST_TIMEOUT" default:"30s"`
	HistoryLimit   int           `env:"FEELINSIGHT_HISTORY_LIMIT" default:"10"`
	LogLevel       string        `env:"LOG_LEVEL" default:"info"`
	LogFormat      string        `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.TokenPath == "" {
		path, err := defaultTokenPath()
		if err != nil {
			return nil, err
		}
		cfg.TokenPath = path
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("FEELINSIGHT_API_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("FEELINSIGHT_API_URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("FEELINSIGHT_API_URL must include a host")
	}

	if cfg.AuthTimeout <= 0 {
		return fmt.Errorf("FEELINSIGHT_AUTH_TIMEOUT must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("FEELINSIGHT_REQUEST_TIMEOUT must be positive")
	}
	if cfg.HistoryLimit < 1 {
		return fmt.Errorf("FEELINSIGHT_HISTORY_LIMIT must be at least 1")
	}

	return nil
}

func defaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory for token path: %w", err)
	}
	return filepath.Join(home, ".feelinsight", "token"), nil
}
