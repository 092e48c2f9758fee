// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	BearerToken        string        `mapstructure:"BEARER_TOKEN"`
	ChatBackendURL     string        `mapstructure:"CHAT_BACKEND_URL"`
	ChatBackendToken   string        `mapstructure:"CHAT_BACKEND_TOKEN"`
	ChatTimeout        time.Duration `mapstructure:"CHAT_TIMEOUT"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	Port               string        `mapstructure:"PORT"`
	AllowedOrigins     []string      `mapstructure:"ALLOWED_ORIGINS"`
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
}

var required = []string{"DATABASE_URL", "REDIS_URL", "BEARER_TOKEN", "CHAT_BACKEND_URL"}

var optional = []string{"CHAT_BACKEND_TOKEN"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CHAT_TIMEOUT", 60*time.Second)
	v.SetDefault("SESSION_TTL", 168*time.Hour)
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads a .env file from the working directory if there is one, then
// the process environment. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	for _, key := range append(append([]string{}, required...), optional...) {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ChatBackendURL = strings.TrimRight(cfg.ChatBackendURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	values := map[string]string{
		"DATABASE_URL":     c.DatabaseURL,
		"REDIS_URL":        c.RedisURL,
		"BEARER_TOKEN":     c.BearerToken,
		"CHAT_BACKEND_URL": c.ChatBackendURL,
	}
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be positive, got %s", c.ChatTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel into a slog level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
