// Package config loads process settings from FOLDTABLE_* environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/foldtable/pkg/diagnostics"
	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds every environment driven setting.
// Command-line flags override these values in cmd/foldtable.
type Config struct {
	Env       string `env:"FOLDTABLE_ENV" envDefault:"development"`
	LogLevel  string `env:"FOLDTABLE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FOLDTABLE_LOG_FORMAT" envDefault:"text"`

	Store    string `env:"FOLDTABLE_STORE" envDefault:"memory"`
	StoreDir string `env:"FOLDTABLE_STORE_DIR" envDefault:".foldtable/streams"`

	RedisAddr         string        `env:"FOLDTABLE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword     string        `env:"FOLDTABLE_REDIS_PASSWORD"`
	RedisDB           int           `env:"FOLDTABLE_REDIS_DB" envDefault:"0"`
	RedisTTL          time.Duration `env:"FOLDTABLE_REDIS_TTL"`
	RedisPrefix       string        `env:"FOLDTABLE_REDIS_PREFIX" envDefault:"foldtable:stream:"`
	RedisVersionCheck bool          `env:"FOLDTABLE_REDIS_VERSION_CHECK" envDefault:"true"`
	LockTTL           time.Duration `env:"FOLDTABLE_LOCK_TTL" envDefault:"30s"`

	// EncryptionKey enables AES-256 encryption of stored state (base64 or hex, 32 bytes).
	EncryptionKey          string   `env:"FOLDTABLE_ENCRYPTION_KEY"`
	EncryptionFallbackKeys []string `env:"FOLDTABLE_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`

	MaxInputSize int `env:"FOLDTABLE_MAX_INPUT_SIZE" envDefault:"4096"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Environ())
}

// LoadFrom reads the configuration from KEY=value pairs.
func LoadFrom(environ []string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want memory, file or redis)", c.Store)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.MaxInputSize < 0 {
		return errors.New("max input size must not be negative")
	}
	return nil
}

// Production reports whether the process runs in production mode.
func (c *Config) Production() bool {
	return c.Env == diagnostics.ProductionMode
}

// Encryption decodes the configured keys. It returns nil keys when encryption is disabled.
func (c *Config) Encryption() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = DecodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("FOLDTABLE_ENCRYPTION_KEY: %w", err)
	}
	for i, raw := range c.EncryptionFallbackKeys {
		key, err := DecodeKey(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("FOLDTABLE_ENCRYPTION_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// DecodeKey accepts a 32 byte key encoded as standard base64 or hex.
func DecodeKey(raw string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(raw); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := hex.DecodeString(raw); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, errors.New("key must be 32 bytes encoded as base64 or hex")
}
