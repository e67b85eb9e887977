package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"go-movie-catalog/internal/model"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestTokenService(t *testing.T) {
	t.Parallel()

	alice := model.User{ID: 7, Username: "alice", Role: model.RoleUser}

	t.Run("rejects empty secret and ttl", func(t *testing.T) {
		_, err := NewTokenService(" ", time.Hour)
		require.Error(t, err)

		_, err = NewTokenService("secret", 0)
		require.Error(t, err)
	})

	t.Run("round trips identity and role", func(t *testing.T) {
		svc, err := NewTokenService("secret", time.Hour)
		require.NoError(t, err)

		token, _, err := svc.Issue(alice)
		require.NoError(t, err)

		claims, err := svc.Verify(token)
		require.NoError(t, err)
		require.Equal(t, int64(7), claims.UserID)
		require.Equal(t, "alice", claims.Username)
		require.Equal(t, model.RoleUser, claims.Role)
		require.NotEmpty(t, claims.TokenID)
	})

	t.Run("expires exactly at exp", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		svc, err := NewTokenService("secret", time.Hour)
		require.NoError(t, err)
		svc.SetClock(fixedClock(&now))

		token, expiresAt, err := svc.Issue(alice)
		require.NoError(t, err)
		require.Equal(t, now.Add(time.Hour), expiresAt)

		now = expiresAt.Add(-time.Second)
		_, err = svc.Verify(token)
		require.NoError(t, err)

		now = expiresAt
		_, err = svc.Verify(token)
		require.ErrorIs(t, err, model.ErrTokenExpired)

		now = expiresAt.Add(time.Minute)
		_, err = svc.Verify(token)
		require.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("rejects tokens signed with another key", func(t *testing.T) {
		issuer, err := NewTokenService("secret-a", time.Hour)
		require.NoError(t, err)
		verifier, err := NewTokenService("secret-b", time.Hour)
		require.NoError(t, err)

		token, _, err := issuer.Issue(alice)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("rejects malformed and unsigned tokens", func(t *testing.T) {
		svc, err := NewTokenService("secret", time.Hour)
		require.NoError(t, err)

		for _, token := range []string{"", "abc", "a.b.c"} {
			_, err := svc.Verify(token)
			require.ErrorIs(t, err, model.ErrInvalidToken, token)
		}

		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
			UserID: 7, Role: model.RoleAdmin, Type: accessTokenType,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Verify(raw)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("rejects tokens without exp or with unknown role", func(t *testing.T) {
		svc, err := NewTokenService("secret", time.Hour)
		require.NoError(t, err)

		noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
			UserID: 7, Role: model.RoleUser, Type: accessTokenType,
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.Verify(noExp)
		require.ErrorIs(t, err, model.ErrInvalidToken)

		badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
			UserID: 7, Role: "root", Type: accessTokenType,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.Verify(badRole)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})
}
