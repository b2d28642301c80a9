package domain

import "time"

// TokenPair is what the login and refresh endpoints return: a short-lived
// JWT access token, the opaque refresh token, and the account it belongs to.
type TokenPair struct {
	AccessToken  string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	User         Profile `json:"user"`
}

// RefreshToken models the stored refresh token record. Each user holds at
// most one row; issuing a new token replaces the previous one.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VerificationToken is the single-use email verification credential. It is
// deleted when consumed, so existence implies it has never been used.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ResetToken is the single-use password reset credential. Unlike verification
// tokens it is retained after use with Used set, so a replayed token can be
// distinguished from an unknown one in logs.
type ResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
