// Package config loads settings from the environment. A .env file in the
// working directory is read first; variables already set win over it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"

	"github.com/sakif/snippets-guru/internal/guru"
)

const (
	EnvBaseURL     = "SNIPPETS_GURU_BASE_URL"
	EnvAuthToken   = "SNIPPETS_GURU_AUTH_TOKEN"
	EnvDBPath      = "GURU_DB_PATH"
	EnvPushDelay   = "GURU_PUSH_DELAY"
	EnvLogLevel    = "LOG_LEVEL"
	EnvPort        = "PORT"
	EnvJWTSecret   = "JWT_SECRET"
	EnvDevDBPath   = "GURU_DEV_DB_PATH"
	EnvDevEmail    = "GURU_DEV_EMAIL"
	EnvDevPassword = "GURU_DEV_PASSWORD"

	DefaultDBPath    = "data/guru.db"
	DefaultPushDelay = 5 * time.Second
	DefaultPort      = 8080
)

type Config struct {
	// Client side.
	BaseURL   string
	AuthToken string // overrides the stored token when set
	DBPath    string
	PushDelay time.Duration
	LogLevel  slog.Level

	// Dev server.
	Port        int
	JWTSecret   string
	DevDBPath   string
	DevEmail    string
	DevPassword string
}

// Load reads the environment after loading the given .env files, or ".env"
// when none are named. Missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		BaseURL:     strings.TrimRight(getenv(EnvBaseURL, guru.DefaultBaseURL), "/"),
		AuthToken:   strings.TrimSpace(os.Getenv(EnvAuthToken)),
		DBPath:      getenv(EnvDBPath, DefaultDBPath),
		PushDelay:   DefaultPushDelay,
		LogLevel:    slog.LevelInfo,
		Port:        DefaultPort,
		JWTSecret:   os.Getenv(EnvJWTSecret),
		DevDBPath:   getenv(EnvDevDBPath, ":memory:"),
		DevEmail:    os.Getenv(EnvDevEmail),
		DevPassword: os.Getenv(EnvDevPassword),
	}

	if raw := os.Getenv(EnvPushDelay); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: %s=%q: %w", EnvPushDelay, raw, err)
		}
		cfg.PushDelay = d
	}

	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("config: %s=%q: %w", EnvLogLevel, raw, err)
		}
	}

	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: %s=%q: %w", EnvPort, raw, err)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Validate checks the client settings. The dev server checks its own with
// ValidateServer.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.PushDelay, validation.Min(time.Nanosecond).Error("must be a positive duration")),
		validation.Field(&c.Port, validation.Min(1), validation.Max(65535)),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateServer checks the settings the dev server needs.
func (c *Config) ValidateServer() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.JWTSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.DevEmail, is.EmailFormat, validation.When(c.DevPassword != "", validation.Required)),
		validation.Field(&c.DevPassword, validation.When(c.DevEmail != "", validation.Required, validation.Length(8, 72))),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger returns a text logger at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
