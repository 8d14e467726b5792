// Package refreshtokens stores refresh token digests.
package refreshtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ecoquad/greenbond/internal/server/models"
)

// Repository persists refresh tokens. Implementations receive the plaintext
// token and store only its Digest.
type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Consume deletes the token and returns what was stored for it, so each
	// token can be exchanged once. Unknown tokens yield common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke deletes the token only when it belongs to userID.
	Revoke(ctx context.Context, userID string, token string) error

	DeleteByUser(ctx context.Context, userID string) error
}

// Digest returns the hex SHA-256 of token.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
