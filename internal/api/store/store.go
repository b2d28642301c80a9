package store

import (
	"context"
	"errors"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	VerificationTokens() VerificationTokens
	ResetTokens() ResetTokens
	Medications() Medications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is the login lookup. Email comparison is case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile rewrites name and email and bumps updated_at.
	// Returns ErrAlreadyExists when the new email belongs to someone else.
	UpdateProfile(ctx context.Context, userID, name, email string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// MarkEmailVerified flips email_verified and bumps updated_at.
	MarkEmailVerified(ctx context.Context, userID string) error

	// DeleteUser cascades to tokens and medications (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type RefreshTokens interface {
	// UpsertRefreshToken stores the user's refresh token, replacing any
	// existing row for that user in a single statement. Each user holds at
	// most one live refresh token.
	UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshTokenByHash removes a token by fingerprint (logout).
	DeleteRefreshTokenByHash(ctx context.Context, hash string) error

	// DeleteRefreshTokensByUser removes the user's token regardless of value.
	DeleteRefreshTokensByUser(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens removes tokens whose expiry is before now.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type VerificationTokens interface {
	// UpsertVerificationToken stores the user's pending verification token,
	// replacing any existing one (resend invalidates the previous link).
	UpsertVerificationToken(ctx context.Context, t domain.VerificationToken) error

	// GetVerificationTokenByHash returns the token by its fingerprint.
	GetVerificationTokenByHash(ctx context.Context, hash string) (domain.VerificationToken, error)

	// DeleteVerificationToken removes a consumed token by id.
	DeleteVerificationToken(ctx context.Context, id string) error

	// DeleteExpiredVerificationTokens removes tokens past their expiry.
	DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error)
}

type ResetTokens interface {
	// UpsertResetToken stores the user's pending reset token, replacing any
	// existing one. The replacement always starts unused.
	UpsertResetToken(ctx context.Context, t domain.ResetToken) error

	// GetResetTokenByHash returns the token by its fingerprint.
	GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error)

	// MarkResetTokenUsed flips the used flag. Returns ErrNotFound if the
	// token was already used, so concurrent consumers race safely.
	MarkResetTokenUsed(ctx context.Context, id string) error

	// DeleteExpiredResetTokens removes tokens past their expiry.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type Medications interface {
	// CreateMedication inserts a new medication row.
	CreateMedication(ctx context.Context, m domain.Medication) error

	// GetMedicationByID returns a medication regardless of owner; the
	// service layer enforces ownership.
	GetMedicationByID(ctx context.Context, id string) (domain.Medication, error)

	// ListMedicationsByUser returns the user's medications, newest first.
	ListMedicationsByUser(ctx context.Context, userID string) ([]domain.Medication, error)

	// UpdateMedication rewrites the mutable fields and bumps updated_at.
	UpdateMedication(ctx context.Context, m domain.Medication) error

	// DeleteMedication removes a medication by id.
	DeleteMedication(ctx context.Context, id string) error
}
