// Package config loads app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds server configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; when empty the in-memory store is used.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TickInterval is the simulation tick period (e.g. "60s").
	TickInterval string `mapstructure:"TICK_INTERVAL"`
	// TickSeed seeds the simulation RNG; 0 means a random seed per run.
	TickSeed int64 `mapstructure:"TICK_SEED"`
	// KafkaBrokers is a comma-separated broker list; empty disables publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryTopic is the Kafka topic readings are published to.
	TelemetryTopic string `mapstructure:"TELEMETRY_TOPIC"`
	// LogPath, when set, mirrors log output to this file in addition to stdout.
	LogPath string `mapstructure:"LOG_PATH"`
}

// Load reads .env (if present), then builds Config from the environment.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore missing .env

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TICK_INTERVAL", "60s")
	v.SetDefault("TICK_SEED", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_TOPIC", "telemetry.readings")
	v.SetDefault("LOG_PATH", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if _, err := time.ParseDuration(cfg.TickInterval); err != nil {
		return nil, errors.New("config: TICK_INTERVAL must be a valid duration")
	}

	return &cfg, nil
}

// TickPeriod parses TickInterval as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) TickPeriod() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// A non-empty list means publishing is enabled.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
