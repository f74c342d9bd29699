package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	EnvBaseURL, EnvAuthToken, EnvDBPath, EnvPushDelay, EnvLogLevel,
	EnvPort, EnvJWTSecret, EnvDevDBPath, EnvDevEmail, EnvDevPassword,
}

// clearEnv blanks every variable Load reads. t.Setenv restores them after
// the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "https://snippets.guru", cfg.BaseURL)
	assert.Empty(t, cfg.AuthToken)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultPushDelay, cfg.PushDelay)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DevDBPath)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "http://localhost:8080/")
	t.Setenv(EnvAuthToken, "  tok  ")
	t.Setenv(EnvDBPath, "/tmp/x.db")
	t.Setenv(EnvPushDelay, "250ms")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvPort, "9090")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "tok", cfg.AuthToken)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.PushDelay)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBPath, "/from/environment.db")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		EnvAuthToken+"=from-file\n"+EnvDBPath+"=/from/file.db\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.AuthToken)
	assert.Equal(t, "/from/environment.db", cfg.DBPath, "the environment wins over .env")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad delay", key: EnvPushDelay, value: "soon"},
		{name: "negative delay", key: EnvPushDelay, value: "-1s"},
		{name: "zero delay", key: EnvPushDelay, value: "0s"},
		{name: "bad level", key: EnvLogLevel, value: "loud"},
		{name: "bad port", key: EnvPort, value: "http"},
		{name: "port out of range", key: EnvPort, value: "70000"},
		{name: "bad base url", key: EnvBaseURL, value: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{JWTSecret: "0123456789abcdef"}
	assert.NoError(t, cfg.ValidateServer())

	cfg.JWTSecret = "short"
	assert.Error(t, cfg.ValidateServer())

	cfg = &Config{JWTSecret: "0123456789abcdef", DevEmail: "dev@example.com"}
	assert.Error(t, cfg.ValidateServer(), "a seeded account needs a password")

	cfg.DevPassword = "long-enough"
	assert.NoError(t, cfg.ValidateServer())

	cfg.DevEmail = "nope"
	assert.Error(t, cfg.ValidateServer())
}
