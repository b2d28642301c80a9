package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T) *HS256Codec {
	t.Helper()
	codec, err := NewHS256Codec(testSecret)
	require.NoError(t, err)
	return codec
}

func TestNewHS256Codec(t *testing.T) {
	t.Run("rejects short secrets", func(t *testing.T) {
		_, err := NewHS256Codec([]byte("too-short"))
		require.Error(t, err)
	})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	token, err := codec.Sign(NewClaims("01J0USER", "a@x.com", time.Hour, now))
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Subject)
	require.Equal(t, "01J0USER", claims.UserID)
	require.WithinDuration(t, now.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec(t)

	// Issued with a 1s ttl, two seconds in the past.
	issued := time.Now().Add(-2 * time.Second)
	token, err := codec.Sign(NewClaims("01J0USER", "a@x.com", time.Second, issued))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTampered(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Sign(NewClaims("01J0USER", "a@x.com", time.Hour, time.Now()))
	require.NoError(t, err)

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	parts := strings.Split(token, ".")

	t.Run("tampered header", func(t *testing.T) {
		bad := flip(parts[0], 1) + "." + parts[1] + "." + parts[2]
		_, err := codec.Verify(bad)
		require.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		bad := parts[0] + "." + flip(parts[1], len(parts[1])/2) + "." + parts[2]
		_, err := codec.Verify(bad)
		require.Error(t, err)
	})

	t.Run("tampered signature", func(t *testing.T) {
		bad := parts[0] + "." + parts[1] + "." + flip(parts[2], len(parts[2])/2)
		_, err := codec.Verify(bad)
		require.ErrorIs(t, err, ErrSignatureInvalid)
	})
}

func TestVerifyWrongSecret(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewHS256Codec([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	token, err := other.Sign(NewClaims("01J0USER", "a@x.com", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, tc := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := codec.Verify(tc)
		require.ErrorIs(t, err, ErrMalformed, "input %q", tc)
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	codec := newTestCodec(t)

	// An alg=none token must never validate, even with a correct payload.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, NewClaims("01J0USER", "a@x.com", time.Hour, time.Now()))
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.Error(t, err)
}
