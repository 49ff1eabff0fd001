package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docvision/internal/auth"
)

func TestSessionManager_IssueAndVerify(t *testing.T) {
	m := auth.NewSessionManager("test-secret", time.Hour)

	token, err := m.Issue(42, "operator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.UserID)
	assert.Equal(t, "operator", session.Username)
}

func TestSessionManager_WrongSecret(t *testing.T) {
	token, err := auth.NewSessionManager("secret-a", time.Hour).Issue(1, "operator")
	require.NoError(t, err)

	_, err = auth.NewSessionManager("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestSessionManager_ExpiredToken(t *testing.T) {
	m := auth.NewSessionManager("test-secret", -time.Minute)

	// A non-positive TTL falls back to the default, so expiry needs a
	// manager whose token is already stale.
	token, err := auth.NewSessionManager("test-secret", time.Nanosecond).Issue(1, "operator")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestSessionManager_GarbageToken(t *testing.T) {
	m := auth.NewSessionManager("test-secret", time.Hour)

	_, err := m.Verify("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, auth.CheckPassword(hash, "s3cret"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
	assert.False(t, auth.CheckPassword("not-a-hash", "s3cret"))
}
