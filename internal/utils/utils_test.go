package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseJWT(t *testing.T) {
	tok, err := SignJWT("s3cret", "user-1", "provider", 5)
	require.NoError(t, err)

	claims, err := ParseJWT("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "provider", claims.Role)
}

func TestParseJWT_Rejects(t *testing.T) {
	tok, err := SignJWT("s3cret", "user-1", "client", 5)
	require.NoError(t, err)

	_, err = ParseJWT("other", tok)
	assert.Error(t, err, "wrong secret")

	expired, err := SignJWT("s3cret", "user-1", "client", -1)
	require.NoError(t, err)
	_, err = ParseJWT("s3cret", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWT("s3cret", unsigned)
	assert.Error(t, err, "alg none")

	_, err = ParseJWT("s3cret", "garbage")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
	assert.False(t, CheckPassword("not-a-hash", "hunter2"))
}
