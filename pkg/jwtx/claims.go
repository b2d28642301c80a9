// Package jwtx issues and validates the HMAC-signed access tokens presented
// on every protected request. Tokens are self-contained: nothing is persisted
// and validation is a pure function over (secret, clock).
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Short-lived access tokens force callers back
// through the refresh flow; the refresh token itself lives in the store.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims. The subject is the user's email; the
// user's row id travels as a custom claim so handlers can resolve either.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the persisted user identifier (ULID).
	UserID string `json:"userId,omitempty"`
}

// NewClaims builds minimally-correct claims for a user at the given time.
func NewClaims(userID, email string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
}
