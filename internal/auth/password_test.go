package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndMatchPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, MatchesPassword(hash, "correct horse battery staple"))
	require.False(t, MatchesPassword(hash, "wrong password"))
	require.False(t, MatchesPassword("not a bcrypt hash", "anything"))
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)

	// Same input, different salt, different hash.
	require.NotEqual(t, first, second)
}
