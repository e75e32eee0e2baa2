// Package config reads runtime settings from the environment, after loading an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "fallback-secret-change-this"

type Config struct {
	Port          string
	DBPath        string
	MongoURI      string
	SessionSecret string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
	LogFormat     string
	BcryptCost    int
}

// Load reads .env from the working directory when present (existing
// environment variables win) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:          envOr(getenv, "PORT", "3000"),
		DBPath:        envOr(getenv, "PROMPTCARD_DB_PATH", "promptcard.db"),
		MongoURI:      strings.TrimSpace(getenv("MONGODB_URI")),
		SessionSecret: getenv("SESSION_SECRET"),
		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR")),
		RedisPassword: getenv("REDIS_PASSWORD"),
		LogLevel:      envOr(getenv, "LOG_LEVEL", "info"),
		LogFormat:     envOr(getenv, "LOG_FORMAT", "text"),
	}

	var err error
	if cfg.RedisDB, err = envInt(getenv, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = envInt(getenv, "BCRYPT_COST", 12); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.MongoURI == "" && c.DBPath == "" {
		return errors.New("PROMPTCARD_DB_PATH must not be empty")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid REDIS_DB %d", c.RedisDB)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Secret returns SESSION_SECRET, falling back to a fixed development secret
// with a warning.
func (c *Config) Secret(logger *slog.Logger) string {
	if c.SessionSecret != "" {
		return c.SessionSecret
	}
	logger.Warn("SESSION_SECRET is not set, using an insecure development secret")
	return defaultSessionSecret
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, key string, fallback int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
