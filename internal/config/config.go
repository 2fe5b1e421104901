package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/brainlab.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// Optional YAML overrides; empty means built-in defaults.
	TuningPath  string `env:"TUNING_PATH"`
	CatalogPath string `env:"CATALOG_PATH"`

	// bcrypt hash guarding /api/admin; empty disables the admin API.
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", cfg.SessionIdleTimeout)
	}
	return &cfg, nil
}
