// Package config loads parley's settings from an optional YAML file and PARLEY_* environment variables.
package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/pkg/persistence/middleware"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scenarios ScenariosConfig `yaml:"scenarios"`
	Store     StoreConfig     `yaml:"store"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Log       LogConfig       `yaml:"log"`

	// DisplayName is the default name substituted into option labels by `parley play`.
	DisplayName string `yaml:"display_name" env:"PARLEY_DISPLAY_NAME"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" env:"PARLEY_ADDR"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Metrics      bool          `yaml:"metrics" env:"PARLEY_METRICS"`
}

type ScenariosConfig struct {
	// Dir is a directory of scenario files. Empty serves the built-in scenarios.
	Dir   string `yaml:"dir" env:"PARLEY_SCENARIOS_DIR"`
	Watch bool   `yaml:"watch" env:"PARLEY_WATCH"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver" env:"PARLEY_STORE_DRIVER"`
	Dir    string      `yaml:"dir" env:"PARLEY_STORE_DIR"`
	Redis  RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, sessions are stored encrypted.
	EncryptionKey string `yaml:"encryption_key" env:"PARLEY_ENCRYPTION_KEY"`
	// FallbackKeys are older keys still accepted for reading.
	FallbackKeys []string `yaml:"fallback_keys"`

	// MaskPatterns are regular expressions masked out of transcripts before storing.
	MaskPatterns    []string `yaml:"mask_patterns"`
	MaskDisplayName bool     `yaml:"mask_display_name"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"PARLEY_REDIS_ADDR"`
	Password string        `yaml:"password" env:"PARLEY_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"PARLEY_REDIS_DB"`
	Prefix   string        `yaml:"prefix" env:"PARLEY_REDIS_PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"PARLEY_REDIS_TTL"`
	// Lock enables the Redis distributed lock around session updates.
	Lock bool `yaml:"lock" env:"PARLEY_REDIS_LOCK"`
}

type ProxyConfig struct {
	Search SearchConfig `yaml:"search"`
	Chat   ChatConfig   `yaml:"chat"`
}

type SearchConfig struct {
	BaseURL string        `yaml:"base_url" env:"PARLEY_SEARCH_URL"`
	APIKey  string        `yaml:"api_key" env:"PARLEY_SEARCH_API_KEY"`
	Limit   int           `yaml:"limit"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChatConfig struct {
	BaseURL      string        `yaml:"base_url" env:"PARLEY_CHAT_URL"`
	APIKey       string        `yaml:"api_key" env:"PARLEY_CHAT_API_KEY,OPENAI_API_KEY"`
	Model        string        `yaml:"model" env:"PARLEY_CHAT_MODEL"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"PARLEY_LOG_LEVEL"`
	Format string `yaml:"format" env:"PARLEY_LOG_FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // SSE streams stay open
			Metrics:      true,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Dir:    ".parley/sessions",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "parley:session:"},
		},
		Proxy: ProxyConfig{
			Search: SearchConfig{Limit: 10, Timeout: 10 * time.Second},
			Chat:   ChatConfig{Timeout: 60 * time.Second},
		},
		Log: LogConfig{Level: "info", Format: string(logging.FormatText)},
	}
}

// Load reads path (if not empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from the variables named in their env tags.
// PARLEY_CHAT_API_KEY takes precedence over OPENAI_API_KEY.
func (c *Config) ApplyEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Store.Redis.Lock && c.Store.Driver != DriverRedis {
		errs = append(errs, errors.New("store.redis.lock requires the redis driver"))
	}

	if _, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Store.MaskPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.mask_patterns: %w", err))
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Proxy.Search.Limit < 0 {
		errs = append(errs, errors.New("proxy.search.limit must not be negative"))
	}

	return errors.Join(errs...)
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("store.fallback_keys requires store.encryption_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != middleware.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", middleware.KeySize, len(key))
	}
	return key, nil
}
