package config

import (
	"encoding/json"
	"os"

	"github.com/ecoquad/greenbond/internal/flagx"
	"github.com/ecoquad/greenbond/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so both "24h" and integer nanoseconds are accepted. Only
// fields present (non-zero) in the file override the current values.
type JsonConfig struct {
	Environment       string         `json:"environment"`
	EndpointAddr      string         `json:"endpoint_addr"`
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	AccessTokenTTL    timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL   timex.Duration `json:"refresh_token_ttl"`
	BcryptCost        int            `json:"bcrypt_cost"`
	RazorpayKeyID     string         `json:"razorpay_key_id"`
	RazorpayKeySecret string         `json:"razorpay_key_secret"`
	RazorpayBaseURL   string         `json:"razorpay_base_url"`
	GatewayTimeout    timex.Duration `json:"gateway_timeout"`
	GatewayMaxRetries *int           `json:"gateway_max_retries"`
	IdempotencyTTL    timex.Duration `json:"idempotency_ttl"`
	RedisAddr         string         `json:"redis_addr"`
	RedisPassword     string         `json:"redis_password"`
	NATSURL           string         `json:"nats_url"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	LogBackend        string         `json:"log_backend"`
}

// parseJSON overlays the file named by -c/-config in args onto config.
// Without the flag nothing is loaded.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.Environment, c.Environment)
	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.RazorpayKeyID, c.RazorpayKeyID)
	setString(&config.RazorpayKeySecret, c.RazorpayKeySecret)
	setString(&config.RazorpayBaseURL, c.RazorpayBaseURL)
	if c.GatewayTimeout.Duration != 0 {
		config.GatewayTimeout = c.GatewayTimeout.Duration
	}
	if c.GatewayMaxRetries != nil {
		config.GatewayMaxRetries = *c.GatewayMaxRetries
	}
	if c.IdempotencyTTL.Duration != 0 {
		config.IdempotencyTTL = c.IdempotencyTTL.Duration
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogBackend, c.LogBackend)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
