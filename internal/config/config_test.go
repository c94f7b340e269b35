package config

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ".foldtable/streams", cfg.StoreDir)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.True(t, cfg.RedisVersionCheck)
	assert.Equal(t, 4096, cfg.MaxInputSize)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom([]string{
		"FOLDTABLE_ENV=production",
		"FOLDTABLE_STORE=redis",
		"FOLDTABLE_REDIS_DB=3",
		"FOLDTABLE_REDIS_TTL=1h",
		"FOLDTABLE_LOG_FORMAT=json",
		"FOLDTABLE_MAX_INPUT_SIZE=128",
		"FOLDTABLE_REDIS_VERSION_CHECK=false",
		"FOLDTABLE_ENCRYPTION_FALLBACK_KEYS=a,b",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.RedisTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 128, cfg.MaxInputSize)
	assert.False(t, cfg.RedisVersionCheck)
	assert.Equal(t, []string{"a", "b"}, cfg.EncryptionFallbackKeys)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
	}{
		{"Unknown Store", []string{"FOLDTABLE_STORE=postgres"}},
		{"Unknown Format", []string{"FOLDTABLE_LOG_FORMAT=xml"}},
		{"Bad Int", []string{"FOLDTABLE_REDIS_DB=one"}},
		{"Bad Duration", []string{"FOLDTABLE_LOCK_TTL=soon"}},
		{"Negative Size", []string{"FOLDTABLE_MAX_INPUT_SIZE=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestEncryption(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	old := []byte(strings.Repeat("o", 32))

	cfg := &Config{}
	active, fallback, err := cfg.Encryption()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)

	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(key)
	cfg.EncryptionFallbackKeys = []string{hex.EncodeToString(old)}
	active, fallback, err = cfg.Encryption()
	require.NoError(t, err)
	assert.Equal(t, key, active)
	assert.Equal(t, [][]byte{old}, fallback)

	cfg.EncryptionKey = "short"
	_, _, err = cfg.Encryption()
	assert.Error(t, err)
}
