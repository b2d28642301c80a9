package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/domain"
	courier "github.com/medtrackhq/medtrack/internal/api/mail"
	"github.com/medtrackhq/medtrack/internal/api/store"
	"github.com/medtrackhq/medtrack/pkg/cryptox"
	"github.com/medtrackhq/medtrack/pkg/idx"
	"github.com/medtrackhq/medtrack/pkg/jwtx"
	"github.com/medtrackhq/medtrack/pkg/slogx"
)

const (
	// VerificationTokenTTL is how long an email verification link stays valid.
	VerificationTokenTTL = 24 * time.Hour

	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = time.Hour

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailNotVerified   = errors.New("email_not_verified")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidName        = errors.New("invalid_name")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenUsed          = errors.New("token_used")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
)

// AuthService owns the account and token lifecycle: registration, email
// verification, login, refresh, logout and the password reset flow.
type AuthService struct {
	Store      store.Store
	Signer     jwtx.Signer
	Courier    courier.Courier
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Register creates an unverified account and sends the verification mail.
// Mail delivery is best-effort: a failed send is logged, never surfaced, and
// the user can always request a resend.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.Profile, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Profile{}, ErrInvalidEmail
	}
	if name == "" {
		name = email
	}
	if len(password) < MinPasswordLength {
		return domain.Profile{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Profile{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	verifyOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Profile{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return tx.VerificationTokens().UpsertVerificationToken(ctx, domain.VerificationToken{
			ID:        idx.New().String(),
			UserID:    user.ID,
			TokenHash: cryptox.FingerprintToken(verifyOpaque),
			ExpiresAt: time.Now().Add(VerificationTokenTTL),
		})
	})
	if err != nil {
		return domain.Profile{}, err
	}

	if err := s.Courier.SendVerificationMail(ctx, user.Email, verifyOpaque); err != nil {
		l.Warn("verification mail delivery failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return user.Profile(), nil
}

// Login verifies credentials and issues a token pair. The stored refresh
// token is replaced, so at most one refresh token per user is ever live.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so the miss is not observable.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login rejected: bad password", slog.String("user_id", user.ID))
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return domain.TokenPair{}, ErrEmailNotVerified
	}

	accessToken, err := s.Signer.Sign(jwtx.NewClaims(user.ID, user.Email, s.accessTTL(), now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.RefreshTokens().UpsertRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.refreshTTL()),
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		User:         user.Profile(),
	}, nil
}

// Refresh mints a fresh access token against a presented refresh token. The
// refresh token itself is NOT rotated; it stays valid until its original
// expiry, the next login, or logout. Expired tokens are deleted on sight.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	now := time.Now()
	hash := cryptox.FingerprintToken(strings.TrimSpace(refreshToken))

	stored, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidToken
		}
		return domain.TokenPair{}, err
	}

	if now.After(stored.ExpiresAt) {
		_ = s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, hash)
		return domain.TokenPair{}, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidToken
		}
		return domain.TokenPair{}, err
	}

	accessToken, err := s.Signer.Sign(jwtx.NewClaims(user.ID, user.Email, s.accessTTL(), now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Profile(),
	}, nil
}

// Logout invalidates the presented refresh token. It is idempotent: an
// unknown token is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	hash := cryptox.FingerprintToken(strings.TrimSpace(refreshToken))
	return s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, hash)
}

// VerifyEmail consumes a verification token and marks the account verified.
// The token row is deleted in the same transaction, so a second click of the
// same link fails as an unknown token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	l := slogx.FromContext(ctx)
	now := time.Now()
	hash := cryptox.FingerprintToken(strings.TrimSpace(token))

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		stored, err := tx.VerificationTokens().GetVerificationTokenByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		if now.After(stored.ExpiresAt) {
			_ = tx.VerificationTokens().DeleteVerificationToken(ctx, stored.ID)
			return ErrInvalidToken
		}

		if err := tx.Users().MarkEmailVerified(ctx, stored.UserID); err != nil {
			return err
		}
		if err := tx.VerificationTokens().DeleteVerificationToken(ctx, stored.ID); err != nil {
			return err
		}

		l.Info("email verified", slog.String("user_id", stored.UserID))
		return nil
	})
}

// ResendVerification issues a fresh verification token, replacing any pending
// one. It succeeds silently for unknown or already-verified emails so the
// endpoint cannot be used to probe which addresses have accounts.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("resend verification for unknown email")
			return nil
		}
		return err
	}
	if user.EmailVerified {
		l.Debug("resend verification for verified account", slog.String("user_id", user.ID))
		return nil
	}

	verifyOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	err = s.Store.VerificationTokens().UpsertVerificationToken(ctx, domain.VerificationToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(verifyOpaque),
		ExpiresAt: time.Now().Add(VerificationTokenTTL),
	})
	if err != nil {
		return err
	}

	if err := s.Courier.SendVerificationMail(ctx, user.Email, verifyOpaque); err != nil {
		l.Warn("verification mail delivery failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

// ForgotPassword issues a reset token, replacing any pending one. Like
// ResendVerification, it succeeds silently for unknown emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("password reset for unknown email")
			return nil
		}
		return err
	}

	resetOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	err = s.Store.ResetTokens().UpsertResetToken(ctx, domain.ResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(resetOpaque),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	})
	if err != nil {
		return err
	}

	if err := s.Courier.SendPasswordResetMail(ctx, user.Email, resetOpaque); err != nil {
		l.Warn("reset mail delivery failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The used
// flag flip is the atomicity point: of two racing requests with the same
// token, exactly one wins and the loser sees ErrTokenUsed. All refresh
// tokens for the account are revoked in the same transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := slogx.FromContext(ctx)
	now := time.Now()

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	tokenHash := cryptox.FingerprintToken(strings.TrimSpace(token))

	var userEmail string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		stored, err := tx.ResetTokens().GetResetTokenByHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		if stored.Used {
			return ErrTokenUsed
		}
		if now.After(stored.ExpiresAt) {
			return ErrInvalidToken
		}

		if err := tx.ResetTokens().MarkResetTokenUsed(ctx, stored.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenUsed
			}
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		userEmail = user.Email

		if err := tx.Users().UpdatePasswordHash(ctx, stored.UserID, hash); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteRefreshTokensByUser(ctx, stored.UserID)
	})
	if err != nil {
		return err
	}

	if err := s.Courier.SendPasswordChangedMail(ctx, userEmail); err != nil {
		l.Warn("password changed notice delivery failed", slog.Any("error", err))
	}

	l.Info("password reset completed")
	return nil
}
