package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(42, "ada")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ada", claims.Username)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	SetJWTSecret("test-secret")

	_, err := ParseToken("not.a.token")
	assert.Error(t, err)

	// 换了密钥后旧token失效
	token, err := GenerateToken(1, "ada")
	require.NoError(t, err)
	SetJWTSecret("different-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}
