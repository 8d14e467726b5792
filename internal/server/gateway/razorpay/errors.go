package razorpay

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication matches an APIError for HTTP 401: the key id or
	// secret was rejected.
	ErrAuthentication = errors.New("razorpay: authentication failed")
	// ErrSignatureMismatch is returned when a payment signature does not verify.
	ErrSignatureMismatch = errors.New("razorpay: signature mismatch")
)

// APIError is a non-2xx response from the Razorpay API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAuthentication && e.StatusCode == http.StatusUnauthorized
}

// Temporary reports whether the request was turned away before Razorpay
// acted on it, so sending it again cannot create a second order.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusServiceUnavailable || e.StatusCode == http.StatusTooManyRequests
}
