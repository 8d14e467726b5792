package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error { return godotenv.Load() }

// parseEnv loads .env (when present) into the process environment and then
// overlays the recognised variables onto config. PORT sets the HTTP port on
// all interfaces.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	strs := map[string]*string{
		"ENVIRONMENT":         &config.Environment,
		"DATABASE_URL":        &config.DatabaseDSN,
		"JWT_SECRET_KEY":      &config.SecretKey,
		"RAZORPAY_KEY_ID":     &config.RazorpayKeyID,
		"RAZORPAY_KEY_SECRET": &config.RazorpayKeySecret,
		"RAZORPAY_BASE_URL":   &config.RazorpayBaseURL,
		"GRPC_ADDR":           &config.EndpointAddrGRPC,
		"REDIS_ADDR":          &config.RedisAddr,
		"REDIS_PASSWORD":      &config.RedisPassword,
		"NATS_URL":            &config.NATSURL,
		"S3_ROOT_USER":        &config.S3RootUser,
		"S3_ROOT_PASSWORD":    &config.S3RootPassword,
		"S3_BUCKET":           &config.S3Bucket,
		"S3_REGION":           &config.S3Region,
		"S3_BASE_ENDPOINT":    &config.S3BaseEndpoint,
		"LOG_BACKEND":         &config.LogBackend,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		config.EndpointAddr = ":" + v
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &config.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &config.RefreshTokenTTL,
		"GATEWAY_TIMEOUT":   &config.GatewayTimeout,
		"IDEMPOTENCY_TTL":   &config.IdempotencyTTL,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"BCRYPT_COST":         &config.BcryptCost,
		"GATEWAY_MAX_RETRIES": &config.GatewayMaxRetries,
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	return nil
}
