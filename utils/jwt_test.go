package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/utils"
)

func init() {
	config.Set(config.AppConfig{JWTSecret: "unit-test-secret"})
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := utils.GenerateToken(42, "writer", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "writer", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokensAreUnique(t *testing.T) {
	first, err := utils.GenerateToken(42, "writer", time.Hour)
	require.NoError(t, err)
	second, err := utils.GenerateToken(42, "writer", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "same identity in the same second must still yield distinct tokens")

	claims, err := utils.ParseToken(first)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := utils.GenerateToken(1, "writer", -time.Minute)
	require.NoError(t, err)

	_, err = utils.ParseToken(token)
	assert.Error(t, err, "expired tokens must not parse")
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := utils.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestRevokedSession(t *testing.T) {
	token, err := utils.GenerateToken(7, "leaver", time.Hour)
	require.NoError(t, err)

	assert.False(t, utils.IsSessionRevoked(token))
	utils.RevokeSession(token, time.Now().Add(time.Hour))
	assert.True(t, utils.IsSessionRevoked(token), "a revoked token stays revoked until it expires")
}
