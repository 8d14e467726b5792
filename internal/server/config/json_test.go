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

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr":       ":7000",
		"database_dsn":        "postgres://cfg",
		"secret_key":          "file-secret",
		"access_token_ttl":    "12h",
		"refresh_token_ttl":   "720h",
		"bcrypt_cost":         11,
		"razorpay_key_id":     "rzp_file",
		"gateway_timeout":     "5s",
		"gateway_max_retries": 0,
		"redis_addr":          "redis:6379",
		"s3_bucket":           "kyc",
		"log_backend":         "zap",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJSON(cfg, []string{"-config", path}))

		assert.Equal(t, ":7000", cfg.EndpointAddr)
		assert.Equal(t, "postgres://cfg", cfg.DatabaseDSN)
		assert.Equal(t, "file-secret", cfg.SecretKey)
		assert.Equal(t, 12*time.Hour, cfg.AccessTokenTTL)
		assert.Equal(t, 720*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, "rzp_file", cfg.RazorpayKeyID)
		assert.Equal(t, 5*time.Second, cfg.GatewayTimeout)
		assert.Equal(t, 0, cfg.GatewayMaxRetries)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "kyc", cfg.S3Bucket)
		assert.Equal(t, "zap", cfg.LogBackend)

		// absent keys keep defaults
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, "ap-south-1", cfg.S3Region)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := &Config{EndpointAddr: ":1", SecretKey: "keep"}
		require.NoError(t, parseJSON(cfg, []string{"-a", ":2"}))
		assert.Equal(t, ":1", cfg.EndpointAddr)
		assert.Equal(t, "keep", cfg.SecretKey)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		assert.Error(t, parseJSON(&Config{}, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, parseJSON(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}
