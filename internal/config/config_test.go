package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parley.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func key(b byte) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(string(b), 32)))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Proxy.Search.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  read_timeout: 5s
scenarios:
  dir: ./scenarios
  watch: true
store:
  driver: redis
  redis:
    addr: "redis:6379"
    ttl: 1h
    lock: true
proxy:
  chat:
    model: gpt-4o-mini
log:
  level: debug
  format: json
display_name: Sam
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./scenarios", cfg.Scenarios.Dir)
	assert.True(t, cfg.Scenarios.Watch)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "gpt-4o-mini", cfg.Proxy.Chat.Model)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Sam", cfg.DisplayName)
	// untouched sections keep their defaults
	assert.Equal(t, "parley:session:", cfg.Store.Redis.Prefix)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  adress: \":9000\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adress")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: file\nlog:\n  level: warn\n")
	t.Setenv("PARLEY_STORE_DRIVER", "memory")
	t.Setenv("PARLEY_LOG_LEVEL", "debug")
	t.Setenv("PARLEY_REDIS_DB", "3")
	t.Setenv("PARLEY_WATCH", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.True(t, cfg.Scenarios.Watch)
}

func TestApplyEnv_ChatKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "sk-openai", cfg.Proxy.Chat.APIKey)

	t.Setenv("PARLEY_CHAT_API_KEY", "sk-parley")
	cfg = Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "sk-parley", cfg.Proxy.Chat.APIKey)
}

func TestApplyEnv_UnsetKeepsFileValues(t *testing.T) {
	cfg := Default()
	cfg.Proxy.Chat.Model = "gpt-4o-mini"
	cfg.Store.Redis.TTL = time.Hour

	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "gpt-4o-mini", cfg.Proxy.Chat.Model)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestApplyEnv_BadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"int", "PARLEY_REDIS_DB", "zero"},
		{"bool", "PARLEY_WATCH", "sometimes"},
		{"duration", "PARLEY_REDIS_TTL", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg := Default()
			err := cfg.ApplyEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.value)

			_, err = Load("")
			require.Error(t, err)
		})
	}
}

func TestLoad_EnvDurationAndLock(t *testing.T) {
	t.Setenv("PARLEY_STORE_DRIVER", DriverRedis)
	t.Setenv("PARLEY_REDIS_TTL", "90m")
	t.Setenv("PARLEY_REDIS_LOCK", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "unknown store driver"},
		{"redis without addr", func(c *Config) {
			c.Store.Driver = DriverRedis
			c.Store.Redis.Addr = ""
		}, "store.redis.addr"},
		{"lock without redis", func(c *Config) { c.Store.Redis.Lock = true }, "requires the redis driver"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"bad pattern", func(c *Config) { c.Store.MaskPatterns = []string{"("} }, "mask_patterns"},
		{"short key", func(c *Config) {
			c.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
		}, "must be 32 bytes"},
		{"key not base64", func(c *Config) { c.Store.EncryptionKey = "%%%" }, "not valid base64"},
		{"fallback without active", func(c *Config) { c.Store.FallbackKeys = []string{key('a')} }, "requires store.encryption_key"},
		{"negative limit", func(c *Config) { c.Proxy.Search.Limit = -1 }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreKeys(t *testing.T) {
	s := StoreConfig{EncryptionKey: key('a'), FallbackKeys: []string{key('b')}}
	active, fallback, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []byte(strings.Repeat("a", 32)), active)
	require.Len(t, fallback, 1)
	assert.Equal(t, []byte(strings.Repeat("b", 32)), fallback[0])

	active, fallback, err = StoreConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)
}
