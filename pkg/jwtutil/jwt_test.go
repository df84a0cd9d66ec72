package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, err := signer.GenerateToken(42, "client")
	require.NoError(t, err)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "client", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestExpiredTokenRejected(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := signer.GenerateToken(1, "admin")
	require.NoError(t, err)

	_, err = NewSigner("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := NewSigner("secret", time.Hour).GenerateToken(1, "admin")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestNoneAlgorithmRejected(t *testing.T) {
	claims := UserClaims{
		UserID:           1,
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewSigner("secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestGarbageRejected(t *testing.T) {
	_, err := NewSigner("secret", time.Hour).ValidateToken("not-a-token")
	assert.Error(t, err)
}
