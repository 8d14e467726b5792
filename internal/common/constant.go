package common

// AuthorizationHeaderName is the HTTP header that carries the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// IdempotencyKeyHeaderName is the HTTP header clients use to deduplicate
// order creation retries.
const IdempotencyKeyHeaderName = "Idempotency-Key"

// DefaultCurrency is used when a client does not specify one.
const DefaultCurrency = "INR"
