package service

import (
	"context"
	"errors"
	"log/slog"
	netmail "net/mail"
	"strings"

	"github.com/medtrackhq/medtrack/internal/api/domain"
	courier "github.com/medtrackhq/medtrack/internal/api/mail"
	"github.com/medtrackhq/medtrack/internal/api/store"
	"github.com/medtrackhq/medtrack/pkg/cryptox"
	"github.com/medtrackhq/medtrack/pkg/slogx"
)

// UserService serves the authenticated profile endpoints.
type UserService struct {
	Store   store.Store
	Courier courier.Courier
}

// Profile returns the public projection of the user's account.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile rewrites name and email. A new email that belongs to another
// account is rejected; the UNIQUE constraint backs the check up, so the race
// between two updates to the same address cannot slip through.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, email string) (domain.Profile, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if _, err := netmail.ParseAddress(email); err != nil {
		return domain.Profile{}, ErrInvalidEmail
	}
	if name == "" {
		return domain.Profile{}, ErrInvalidName
	}

	err := s.Store.Users().UpdateProfile(ctx, userID, name, email)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Profile{}, ErrEmailTaken
		}
		return domain.Profile{}, err
	}

	l.Info("profile updated", slog.String("user_id", userID))
	return s.Profile(ctx, userID)
}

// ChangePassword swaps the password after verifying the current one, then
// revokes the user's refresh token so stolen sessions die with the old
// password.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteRefreshTokensByUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	if err := s.Courier.SendPasswordChangedMail(ctx, user.Email); err != nil {
		l.Warn("password changed notice delivery failed", slog.String("user_id", userID), slog.Any("error", err))
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}
