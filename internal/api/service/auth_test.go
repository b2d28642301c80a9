package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/store"
	"github.com/medtrackhq/medtrack/internal/api/store/drivers/sqlite"
	"github.com/medtrackhq/medtrack/pkg/cryptox"
	"github.com/medtrackhq/medtrack/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// capturingCourier records tokens instead of sending mail, so flows can be
// driven end to end without a mail server.
type capturingCourier struct {
	mu               sync.Mutex
	verifyTokens     map[string]string // email -> last token
	resetTokens      map[string]string
	passwordChanged  []string
	failNextDelivery bool
}

func newCapturingCourier() *capturingCourier {
	return &capturingCourier{
		verifyTokens: make(map[string]string),
		resetTokens:  make(map[string]string),
	}
}

func (c *capturingCourier) SendVerificationMail(ctx context.Context, to, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNextDelivery {
		c.failNextDelivery = false
		return context.DeadlineExceeded
	}
	c.verifyTokens[to] = token
	return nil
}

func (c *capturingCourier) SendPasswordResetMail(ctx context.Context, to, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetTokens[to] = token
	return nil
}

func (c *capturingCourier) SendPasswordChangedMail(ctx context.Context, to string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passwordChanged = append(c.passwordChanged, to)
	return nil
}

func (c *capturingCourier) lastVerifyToken(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyTokens[email]
}

func (c *capturingCourier) lastResetToken(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetTokens[email]
}

func newAuthFixture(t *testing.T) (*AuthService, *capturingCourier, store.Store) {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	codec, err := jwtx.NewHS256Codec([]byte("test-secret-test-secret-test-sec"))
	require.NoError(t, err)

	courier := newCapturingCourier()
	svc := &AuthService{Store: s, Signer: codec, Courier: courier}
	return svc, courier, s
}

// registerVerified drives the register + verify flow to a login-ready account.
func registerVerified(t *testing.T, svc *AuthService, courier *capturingCourier, email, password string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Register(ctx, "tester", email, password)
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, courier.lastVerifyToken(email)))
}

func TestRegister(t *testing.T) {
	svc, courier, _ := newAuthFixture(t)
	ctx := context.Background()

	t.Run("creates an unverified account and mails a token", func(t *testing.T) {
		profile, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", profile.Email)
		require.NotEmpty(t, courier.lastVerifyToken("alice@example.com"))

		_, err = svc.Login(ctx, "alice@example.com", "s3cret-pass")
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("rejects duplicate email case-insensitively", func(t *testing.T) {
		_, err := svc.Register(ctx, "imposter", "ALICE@example.com", "another-pass")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := svc.Register(ctx, "x", "not-an-email", "s3cret-pass")
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "bob@example.com", "short")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("survives a failed mail delivery", func(t *testing.T) {
		courier.failNextDelivery = true
		_, err := svc.Register(ctx, "carol", "carol@example.com", "s3cret-pass")
		require.NoError(t, err, "registration must not depend on the mail relay")

		// The resend path recovers the flow.
		require.NoError(t, svc.ResendVerification(ctx, "carol@example.com"))
		require.NotEmpty(t, courier.lastVerifyToken("carol@example.com"))
	})
}

func TestLogin(t *testing.T) {
	svc, courier, s := newAuthFixture(t)
	ctx := context.Background()
	registerVerified(t, svc, courier, "dana@example.com", "s3cret-pass")

	t.Run("issues a token pair with the expected claims", func(t *testing.T) {
		pair, err := svc.Login(ctx, "dana@example.com", "s3cret-pass")
		require.NoError(t, err)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, "dana@example.com", pair.User.Email)
		require.True(t, pair.User.EmailVerified)

		claims, err := svc.Signer.(*jwtx.HS256Codec).Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "dana@example.com", claims.Subject)
		require.NotEmpty(t, claims.UserID)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, errWrongPw := svc.Login(ctx, "dana@example.com", "wrong-password")
		_, errNoUser := svc.Login(ctx, "nobody@example.com", "wrong-password")
		require.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
		require.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	})

	t.Run("second login replaces the first refresh token", func(t *testing.T) {
		first, err := svc.Login(ctx, "dana@example.com", "s3cret-pass")
		require.NoError(t, err)
		second, err := svc.Login(ctx, "dana@example.com", "s3cret-pass")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken, "replaced token must be dead")

		_, err = svc.Refresh(ctx, second.RefreshToken)
		require.NoError(t, err)

		// Exactly one row in the registry for the user.
		hash := cryptox.FingerprintToken(second.RefreshToken)
		stored, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		require.NotEmpty(t, stored.UserID)
	})
}

func TestRefresh(t *testing.T) {
	svc, courier, s := newAuthFixture(t)
	ctx := context.Background()
	registerVerified(t, svc, courier, "eve@example.com", "s3cret-pass")

	t.Run("returns the same refresh token, not a rotated one", func(t *testing.T) {
		pair, err := svc.Login(ctx, "eve@example.com", "s3cret-pass")
		require.NoError(t, err)

		refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
		require.NotEmpty(t, refreshed.AccessToken)

		// Still usable afterwards.
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "never-issued")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token is rejected and deleted on sight", func(t *testing.T) {
		pair, err := svc.Login(ctx, "eve@example.com", "s3cret-pass")
		require.NoError(t, err)

		// Age the stored row past its expiry.
		hash := cryptox.FingerprintToken(pair.RefreshToken)
		stored, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		stored.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, s.RefreshTokens().UpsertRefreshToken(ctx, stored))

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken)

		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.ErrorIs(t, err, store.ErrNotFound, "expired row must be gone after first sighting")
	})
}

func TestLogout(t *testing.T) {
	svc, courier, _ := newAuthFixture(t)
	ctx := context.Background()
	registerVerified(t, svc, courier, "finn@example.com", "s3cret-pass")

	pair, err := svc.Login(ctx, "finn@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Idempotent.
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
}

func TestVerifyEmail(t *testing.T) {
	svc, courier, _ := newAuthFixture(t)
	ctx := context.Background()

	t.Run("token is single use", func(t *testing.T) {
		_, err := svc.Register(ctx, "gina", "gina@example.com", "s3cret-pass")
		require.NoError(t, err)

		token := courier.lastVerifyToken("gina@example.com")
		require.NoError(t, svc.VerifyEmail(ctx, token))
		require.ErrorIs(t, svc.VerifyEmail(ctx, token), ErrInvalidToken, "consumed token must read as unknown")

		_, err = svc.Login(ctx, "gina@example.com", "s3cret-pass")
		require.NoError(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		require.ErrorIs(t, svc.VerifyEmail(ctx, "garbage"), ErrInvalidToken)
	})

	t.Run("resend invalidates the previous link", func(t *testing.T) {
		_, err := svc.Register(ctx, "hugo", "hugo@example.com", "s3cret-pass")
		require.NoError(t, err)
		oldToken := courier.lastVerifyToken("hugo@example.com")

		require.NoError(t, svc.ResendVerification(ctx, "hugo@example.com"))
		newToken := courier.lastVerifyToken("hugo@example.com")
		require.NotEqual(t, oldToken, newToken)

		require.ErrorIs(t, svc.VerifyEmail(ctx, oldToken), ErrInvalidToken)
		require.NoError(t, svc.VerifyEmail(ctx, newToken))
	})

	t.Run("resend is silent for unknown and verified emails", func(t *testing.T) {
		require.NoError(t, svc.ResendVerification(ctx, "stranger@example.com"))
		require.NoError(t, svc.ResendVerification(ctx, "hugo@example.com"))
	})
}

func TestPasswordReset(t *testing.T) {
	svc, courier, _ := newAuthFixture(t)
	ctx := context.Background()
	registerVerified(t, svc, courier, "iris@example.com", "s3cret-pass")

	t.Run("full flow swaps the password and kills sessions", func(t *testing.T) {
		pair, err := svc.Login(ctx, "iris@example.com", "s3cret-pass")
		require.NoError(t, err)

		require.NoError(t, svc.ForgotPassword(ctx, "iris@example.com"))
		token := courier.lastResetToken("iris@example.com")
		require.NotEmpty(t, token)

		require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass"))

		_, err = svc.Login(ctx, "iris@example.com", "s3cret-pass")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, "iris@example.com", "brand-new-pass")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken, "reset must revoke outstanding refresh tokens")
	})

	t.Run("token replay is reported as used", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(ctx, "iris@example.com"))
		token := courier.lastResetToken("iris@example.com")

		require.NoError(t, svc.ResetPassword(ctx, token, "another-new-pass"))
		require.ErrorIs(t, svc.ResetPassword(ctx, token, "yet-another-pass"), ErrTokenUsed)
	})

	t.Run("forgot is silent for unknown emails", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(ctx, "stranger@example.com"))
		require.Empty(t, courier.lastResetToken("stranger@example.com"))
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		require.ErrorIs(t, svc.ResetPassword(ctx, "never-issued", "whatever-pass"), ErrInvalidToken)
	})

	t.Run("weak replacement password is rejected before token consumption", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(ctx, "iris@example.com"))
		token := courier.lastResetToken("iris@example.com")

		require.ErrorIs(t, svc.ResetPassword(ctx, token, "short"), ErrWeakPassword)
		require.NoError(t, svc.ResetPassword(ctx, token, "long-enough-pass"), "token must survive the rejected attempt")
	})
}
