package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// minSecretKeyLen is the shortest HS256 signing secret accepted in production.
const minSecretKeyLen = 32

// Validate checks internal consistency and, outside development, refuses
// placeholder or weak secrets so that a misconfigured deployment fails at
// start-up instead of running with known credentials.
func (c *Config) Validate() error {
	var errs []error

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token TTL must be positive"))
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		errs = append(errs, errors.New("refresh token TTL must not be shorter than access token TTL"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("gateway timeout must be positive"))
	}
	if c.GatewayMaxRetries < 0 {
		errs = append(errs, errors.New("gateway max retries must not be negative"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("idempotency TTL must be positive"))
	}
	if c.EndpointAddr == "" {
		errs = append(errs, errors.New("endpoint address is required"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	switch c.LogBackend {
	case "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("unknown log backend %q", c.LogBackend))
	}

	if !c.IsDevelopment() {
		errs = append(errs, c.productionSecretErrors()...)
	}

	return errors.Join(errs...)
}

func (c *Config) productionSecretErrors() []error {
	var errs []error

	if c.SecretKey == "" || c.SecretKey == placeholderSecretKey {
		errs = append(errs, errors.New("JWT secret key is unset or a placeholder"))
	} else if len(c.SecretKey) < minSecretKeyLen {
		errs = append(errs, fmt.Errorf("JWT secret key must be at least %d bytes", minSecretKeyLen))
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeyID == placeholderRazorpayKeyID {
		errs = append(errs, errors.New("Razorpay key id is unset or a placeholder"))
	}
	if c.RazorpayKeySecret == "" || c.RazorpayKeySecret == placeholderRazorpaySecret {
		errs = append(errs, errors.New("Razorpay key secret is unset or a placeholder"))
	}
	if c.S3RootPassword == placeholderS3RootPassword {
		errs = append(errs, errors.New("S3 password is a placeholder"))
	}
	if strings.Contains(c.DatabaseDSN, placeholderDatabaseCreds) {
		errs = append(errs, errors.New("database DSN uses the default postgres password"))
	}

	return errs
}
