package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-chars-long-for-security"

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := NewJWTManager(testSecret, "poetica-test", 15*time.Minute)
	userID := uuid.NewString()

	token, expiresAt, err := manager.GenerateAccessToken(userID, "ADMIN")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	got, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "ADMIN", got.Role)
	assert.WithinDuration(t, time.Now(), got.IssuedAt, 5*time.Second)
}

func TestJWTManager_RejectsInvalidUserID(t *testing.T) {
	manager := NewJWTManager(testSecret, "poetica-test", time.Minute)

	_, _, err := manager.GenerateAccessToken("not-a-uuid", "USER")
	assert.Error(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager(testSecret, "poetica-test", -time.Minute)

	token, _, err := manager.GenerateAccessToken(uuid.NewString(), "USER")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_WrongSecretOrIssuer(t *testing.T) {
	issuer := NewJWTManager(testSecret, "poetica-test", time.Minute)
	token, _, err := issuer.GenerateAccessToken(uuid.NewString(), "USER")
	require.NoError(t, err)

	otherSecret := NewJWTManager(strings.Repeat("x", 40), "poetica-test", time.Minute)
	_, err = otherSecret.ValidateAccessToken(token)
	assert.Error(t, err)

	otherIssuer := NewJWTManager(testSecret, "someone-else", time.Minute)
	_, err = otherIssuer.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_Empty(t *testing.T) {
	manager := NewJWTManager(testSecret, "poetica-test", time.Minute)

	_, err := manager.ValidateAccessToken("")
	assert.Error(t, err)
}
