package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"tutor_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	AppTZ       string `envconfig:"APP_TZ" default:"Europe/Kyiv"`
	SummaryHour int    `envconfig:"SUMMARY_HOUR" default:"9"` // local wall-clock hour

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogOutput string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.SummaryHour < 0 || cfg.SummaryHour > 23 {
		return cfg, fmt.Errorf("SUMMARY_HOUR out of range: %d", cfg.SummaryHour)
	}
	return cfg, nil
}

// Location resolves the configured timezone. All lesson instants and the
// morning summary schedule live in this single zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AppTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TZ %q: %w", c.AppTZ, err)
	}
	return loc, nil
}
