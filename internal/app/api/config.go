package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	BusModeLocal  = "local"
	BusModeRemote = "remote"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port        string     `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	ServiceName string     `env:"SERVICE_NAME" envDefault:"workorder-dispatch-api" validate:"required"`
	Environment string     `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	TransitionLockTTL time.Duration `env:"TRANSITION_LOCK_TTL" envDefault:"10s" validate:"gt=0"`

	BusMode          string        `env:"BUS_MODE" envDefault:"local" validate:"oneof=local remote"`
	BusRemoteURL     string        `env:"BUS_REMOTE_URL" validate:"required_if=BusMode remote,omitempty,url"`
	BusRemoteTimeout time.Duration `env:"BUS_REMOTE_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	SeedEmployees bool `env:"SEED_EMPLOYEES" envDefault:"true"`
}

var configValidator = validator.New()

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := configValidator.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) RemoteBusEnabled() bool {
	return c.BusMode == BusModeRemote
}
