package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Environment names accepted in MEETUP_ENV.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config captures environment driven configuration values for the meetup service.
type Config struct {
	Env              string        `env:"MEETUP_ENV" env-default:"development"`
	HTTPPort         int           `env:"MEETUP_HTTP_PORT" env-default:"3001"`
	SQLiteDSN        string        `env:"MEETUP_SQLITE_DSN" env-default:"file:meetup.db"`
	DBMaxOpenConns   int           `env:"MEETUP_DB_MAX_OPEN_CONNS" env-default:"10"`
	DBBusyTimeout    time.Duration `env:"MEETUP_DB_BUSY_TIMEOUT" env-default:"5s"`
	JWTSecret        string        `env:"MEETUP_JWT_SECRET"`
	JWTTTL           time.Duration `env:"MEETUP_JWT_TTL" env-default:"168h"`
	AutoApproveUsers bool          `env:"MEETUP_AUTO_APPROVE_USERS" env-default:"false"`
	AllowedOrigins   []string      `env:"MEETUP_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	RateLimit        int           `env:"MEETUP_RATE_LIMIT" env-default:"100"`
	RateWindow       time.Duration `env:"MEETUP_RATE_WINDOW" env-default:"15m"`
	TrustProxy       bool          `env:"MEETUP_TRUST_PROXY" env-default:"false"`
	LogLevel         string        `env:"MEETUP_LOG_LEVEL" env-default:"info"`
}

// IsProduction reports whether diagnostic detail must be withheld from clients.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load parses configuration values from the current process environment.
//
// Defaults come from the struct tags. Required and range-checked values are
// validated afterwards and reported together.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if cfg.JWTSecret == "" {
		missing = append(missing, "MEETUP_JWT_SECRET")
	} else if len(cfg.JWTSecret) < 16 {
		invalid = append(invalid, "MEETUP_JWT_SECRET")
	}
	switch cfg.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		invalid = append(invalid, "MEETUP_ENV")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "MEETUP_HTTP_PORT")
	}
	if strings.TrimSpace(cfg.SQLiteDSN) == "" {
		invalid = append(invalid, "MEETUP_SQLITE_DSN")
	}
	if cfg.DBMaxOpenConns <= 0 {
		invalid = append(invalid, "MEETUP_DB_MAX_OPEN_CONNS")
	}
	if cfg.DBBusyTimeout < 0 {
		invalid = append(invalid, "MEETUP_DB_BUSY_TIMEOUT")
	}
	if cfg.JWTTTL <= 0 {
		invalid = append(invalid, "MEETUP_JWT_TTL")
	}
	// A zero limit turns rate limiting off, so the window only matters above it.
	if cfg.RateLimit < 0 {
		invalid = append(invalid, "MEETUP_RATE_LIMIT")
	}
	if cfg.RateLimit > 0 && cfg.RateWindow <= 0 {
		invalid = append(invalid, "MEETUP_RATE_WINDOW")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "MEETUP_LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// LoadWithDotEnv reads variables from path into the environment, without
// overriding ones already set, and then calls Load. A missing file is not an
// error.
func LoadWithDotEnv(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Load()
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
