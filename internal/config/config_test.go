package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "HOST", "PORT", "WEBHOOK_URL", "WEBHOOK_TIMEOUT", "WEBHOOK_RATE_LIMIT",
		"REQUEST_TIMEOUT", "MAX_REQUEST_BODY_SIZE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/webhook/abc")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, "https://hooks.example.com/webhook/abc", cfg.WebhookURL)
	assert.Equal(t, time.Duration(0), cfg.WebhookTimeout)
	assert.Equal(t, 0.0, cfg.WebhookRateLimit)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxRequestBodySize)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_URL", " http://localhost:5678/webhook ")
	t.Setenv("PORT", "9000")
	t.Setenv("WEBHOOK_TIMEOUT", "45s")
	t.Setenv("WEBHOOK_RATE_LIMIT", "2.5")
	t.Setenv("MAX_REQUEST_BODY_SIZE", "1024")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5678/webhook", cfg.WebhookURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddress())
	assert.Equal(t, 45*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 2.5, cfg.WebhookRateLimit)
	assert.Equal(t, int64(1024), cfg.MaxRequestBodySize)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing webhook", map[string]string{}},
		{"webhook without host", map[string]string{"WEBHOOK_URL": "http://"}},
		{"webhook bad scheme", map[string]string{"WEBHOOK_URL": "ftp://example.com/hook"}},
		{"bad port", map[string]string{"WEBHOOK_URL": "https://example.com/hook", "PORT": "http"}},
		{"port out of range", map[string]string{"WEBHOOK_URL": "https://example.com/hook", "PORT": "70000"}},
		{"zero body size", map[string]string{"WEBHOOK_URL": "https://example.com/hook", "MAX_REQUEST_BODY_SIZE": "0"}},
		{"negative rate", map[string]string{"WEBHOOK_URL": "https://example.com/hook", "WEBHOOK_RATE_LIMIT": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
port: "7070"
webhook_url: https://hooks.example.com/from-file
webhook_timeout: 20s
log_level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7171")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/from-file", cfg.WebhookURL)
	assert.Equal(t, 20*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	// env wins over the file
	assert.Equal(t, "7171", cfg.Port)
}

func TestLoadFromEnv_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/webhook")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}
