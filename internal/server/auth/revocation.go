package auth

import (
	"context"
	"time"

	"github.com/ecoquad/greenbond/internal/cache"
	"github.com/ecoquad/greenbond/internal/common"
)

// RevocationList remembers logged-out token ids until the tokens would have
// expired anyway.
type RevocationList struct {
	store cache.Store
	now   func() time.Time
}

func NewRevocationList(store cache.Store) *RevocationList {
	return &RevocationList{store: store, now: time.Now}
}

// Revoke blacklists jti until expiresAt. Already expired tokens are ignored.
func (r *RevocationList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, jti, "1", ttl)
}

func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.store.Exists(ctx, jti)
}

// Verifier parses access tokens and rejects revoked ones.
type Verifier struct {
	issuer  *TokenIssuer
	revoked *RevocationList
}

func NewVerifier(issuer *TokenIssuer, revoked *RevocationList) *Verifier {
	return &Verifier{issuer: issuer, revoked: revoked}
}

// Verify returns the claims of a valid, unrevoked token.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := v.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := v.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}
