package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-image-error-detector/pkg/validation"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	WebhookURL         string        `yaml:"webhook_url"`
	WebhookTimeout     time.Duration `yaml:"webhook_timeout"`
	WebhookRateLimit   float64       `yaml:"webhook_rate_limit"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	LogLevel           string        `yaml:"log_level"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func defaults() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     30 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
		LogLevel:           "info",
	}
}

// LoadFromEnv builds the configuration from defaults, then the optional YAML
// file named by CONFIG_FILE, then environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.WebhookURL = strings.TrimSpace(getEnvOrDefault("WEBHOOK_URL", cfg.WebhookURL))
	cfg.WebhookTimeout = parseDurationOrDefault("WEBHOOK_TIMEOUT", cfg.WebhookTimeout)
	cfg.WebhookRateLimit = parseFloatOrDefault("WEBHOOK_RATE_LIMIT", cfg.WebhookRateLimit)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}
	if err := validation.NewURLValidator().ValidateURL(c.WebhookURL); err != nil {
		return fmt.Errorf("invalid WEBHOOK_URL: %w", err)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout)
	}
	if c.WebhookTimeout < 0 || c.WebhookRateLimit < 0 {
		return fmt.Errorf("webhook timeout and rate limit must not be negative (got timeout=%s, rate=%g)",
			c.WebhookTimeout, c.WebhookRateLimit)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// A zero duration is accepted so WEBHOOK_TIMEOUT=0 can disable the timeout.
func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration >= 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
