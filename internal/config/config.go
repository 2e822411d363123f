package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration, loaded from the environment.
// CONFIG_ROOT names the directory that holds users.json and must point at an
// existing directory; everything else has a sensible default.
type Config struct {
	ServerPort     int      `env:"PORT" envDefault:"8080"`
	ConfigRoot     string   `env:"CONFIG_ROOT,required"`
	DatabasePath   string   `env:"DATABASE_PATH" envDefault:"./gatekeep.db"`
	BackupPath     string   `env:"BACKUP_PATH" envDefault:"./backups"`
	BackupSchedule string   `env:"BACKUP_SCHEDULE" envDefault:"0 3 * * *"`
	JWTSecret      string   `env:"JWT_SECRET"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
