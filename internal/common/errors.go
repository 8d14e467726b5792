// Package common defines sentinel errors and small helpers shared by the
// greenbond server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")
	ErrorInactive     = errors.New("account is deactivated")

	// Token errors.
	ErrMissingToken        = errors.New("missing token")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Payment errors.
	ErrGatewayAuth         = errors.New("payment gateway authentication failed")
	ErrGateway             = errors.New("payment gateway error")
	ErrVerification        = errors.New("payment verification failed")
	ErrIdempotencyInFlight = errors.New("request with this idempotency key is in progress")
	ErrFundingExceeded     = errors.New("investment exceeds remaining bond amount")
)

// ValidationError carries a message that is safe to return to the client.
// It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// AuthError carries a client-safe message for an authentication failure.
// It matches ErrorUnauthorized with errors.Is.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	return target == ErrorUnauthorized
}

// NewAuthError returns an *AuthError with the given message.
func NewAuthError(msg string) error {
	return &AuthError{Message: msg}
}
