/*
Package config loads server configuration from environment variables.

PURPOSE:
  Central place for every tunable the server reads at startup. Values
  come from the environment (viper), with sane defaults for local
  development so a bare `go run ./cmd/server` works.

VARIABLES:
  PORT                 HTTP server port (default: 8080)
  DB_PATH              SQLite database path (default: medtrack.db)
                       Use ":memory:" for an in-memory database
  CORS_ORIGINS         Comma-separated allowed origins
  NOTIFY_WORKERS       Notification worker pool size (default: 4)
  NOTIFY_QUEUE         Notification queue capacity (default: 256)
  STOCK_SWEEP_INTERVAL Low-stock sweep interval (default: 1h)
  LOG_LEVEL            zerolog level: debug, info, warn, error
  ENV                  development or production (console vs JSON logs)
*/
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all server configuration.
type Config struct {
	Port               int
	DBPath             string
	CORSOrigins        []string
	NotifyWorkers      int
	NotifyQueue        int
	StockSweepInterval time.Duration
	LogLevel           string
	Env                string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "medtrack.db")
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE", 256)
	v.SetDefault("STOCK_SWEEP_INTERVAL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", "development")

	cfg := &Config{
		Port:          v.GetInt("PORT"),
		DBPath:        v.GetString("DB_PATH"),
		CORSOrigins:   v.GetStringSlice("CORS_ORIGINS"),
		NotifyWorkers: v.GetInt("NOTIFY_WORKERS"),
		NotifyQueue:   v.GetInt("NOTIFY_QUEUE"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		Env:           v.GetString("ENV"),
	}

	interval, err := time.ParseDuration(v.GetString("STOCK_SWEEP_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("bad STOCK_SWEEP_INTERVAL: %w", err)
	}
	cfg.StockSweepInterval = interval

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("bad PORT: %d", cfg.Port)
	}
	if cfg.NotifyWorkers < 1 {
		return nil, fmt.Errorf("bad NOTIFY_WORKERS: %d", cfg.NotifyWorkers)
	}
	if cfg.NotifyQueue < 1 {
		return nil, fmt.Errorf("bad NOTIFY_QUEUE: %d", cfg.NotifyQueue)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
