package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every externally injected setting. Secrets live here and
// nowhere else; components receive them through constructors.
type Config struct {
	Addr     string `env:"AUTH_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"AUTH_GRPC_ADDR" envDefault:":8081"`

	PGDSN string `env:"AUTH_PG_DSN"`

	JWTSecret    string        `env:"AUTH_JWT_SECRET"`
	ProjectToken string        `env:"AUTH_PROJECT_TOKEN"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"8h"`
	Issuer       string        `env:"AUTH_ISSUER" envDefault:"cf-jwt-auth"`

	RateLimitPerSecond int `env:"AUTH_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int `env:"AUTH_RATE_LIMIT_BURST" envDefault:"40"`

	MaxBodyBytes int64 `env:"AUTH_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if strings.TrimSpace(c.ProjectToken) == "" {
		return errors.New("AUTH_PROJECT_TOKEN is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be greater than zero")
	}
	return nil
}
