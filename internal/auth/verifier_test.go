package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, key string, method jwt.SigningMethod, c jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func future() *jwt.NumericDate { return jwt.NewNumericDate(time.Now().Add(time.Hour)) }

func TestJWTVerifier(t *testing.T) {
	v, err := NewJWTVerifier(secret, "runplan-auth")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("uid claim", func(t *testing.T) {
		tok := sign(t, secret, jwt.SigningMethodHS256, &claims{
			UserID:           "user-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "runplan-auth", ExpiresAt: future()},
		})
		got, err := v.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", got)
	})

	t.Run("sub claim", func(t *testing.T) {
		tok := sign(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-2", Issuer: "runplan-auth", ExpiresAt: future()})
		got, err := v.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "user-2", got)
	})

	t.Run("expired", func(t *testing.T) {
		tok := sign(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: "user-1", Issuer: "runplan-auth", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})
		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrExpiredCredential)
	})

	t.Run("wrong key", func(t *testing.T) {
		tok := sign(t, "other", jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1", Issuer: "runplan-auth", ExpiresAt: future()})
		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok := sign(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1", Issuer: "someone-else", ExpiresAt: future()})
		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("no subject", func(t *testing.T) {
		tok := sign(t, secret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "runplan-auth", ExpiresAt: future()})
		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := v.Verify(ctx, "  ")
		assert.ErrorIs(t, err, ErrMissingCredential)
	})
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer"))
	assert.Equal(t, "", BearerToken("Bearer a b"))
}
