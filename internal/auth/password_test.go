package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestGenerateResetToken(t *testing.T) {
	raw, hash, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, hash, 64)
	assert.Equal(t, HashToken(raw), hash)

	raw2, _, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}
