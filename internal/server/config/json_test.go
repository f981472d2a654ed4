package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                      "www.example:9000",
		"database_dsn":                   "postgres://db",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "10m",
		"max_concurrency":                8,
		"max_depth":                      12,
		"s3_bucket":                      "bucket",
		"s3_base_endpoint":               "base_endpoint",
		"redis_addr":                     "redis:6379",
		"rate_limit_capacity":            30,
		"rate_limit_refill_interval":     "500ms",
		"amqp_url":                       "amqp://mq",
		"log_level":                      "error",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 10*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, int64(8), cfg.MaxConcurrency)
		assert.Equal(t, 12, cfg.MaxDepth)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 30, cfg.RateLimitCapacity)
		assert.Equal(t, 500*time.Millisecond, cfg.RateLimitRefillInterval)
		assert.Equal(t, "amqp://mq", cfg.AMQPURL)
		assert.Equal(t, "error", cfg.LogLevel)

		assert.Equal(t, "us-east-1", cfg.S3Region, "absent keys keep defaults")
		assert.Equal(t, 1, cfg.RateLimitRefillTokens)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{HTTPAddr: "defaults:1234", DatabaseDSN: "memory", MaxDepth: 3}
		parseJson(cfg)

		assert.Equal(t, &Config{HTTPAddr: "defaults:1234", DatabaseDSN: "memory", MaxDepth: 3}, cfg)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
