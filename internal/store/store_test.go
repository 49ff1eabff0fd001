package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docvision/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_UserLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	missing, err := s.UserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing, "absent user is nil, not an error")

	id, err := s.CreateUser(ctx, "operator", "hash-1", false)
	require.NoError(t, err)
	require.NotZero(t, id)

	byName, err := s.UserByUsername(ctx, "operator")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, "hash-1", byName.PasswordHash)
	assert.False(t, byName.IsSuperuser)

	byID, err := s.UserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "operator", byID.Username)
}

func TestStore_DuplicateUsername(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "operator", "hash-1", false)
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "operator", "hash-2", false)
	assert.Error(t, err)
}

func TestStore_EnsureUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.EnsureUser(ctx, "admin", "hash-1", true)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureUser(ctx, "admin", "hash-other", true)
	require.NoError(t, err)
	assert.False(t, created)

	// The second call must not overwrite the original credentials.
	u, err := s.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "hash-1", u.PasswordHash)
	assert.True(t, u.IsSuperuser)
}

func TestStore_SourceToken(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "operator", "hash", false)
	require.NoError(t, err)

	key, err := s.SourceToken(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, key, "no stored token reads back empty")

	require.NoError(t, s.SaveSourceToken(ctx, id, "key-one"))
	key, err = s.SourceToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "key-one", key)

	// A re-login replaces the previous token.
	require.NoError(t, s.SaveSourceToken(ctx, id, "key-two"))
	key, err = s.SourceToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "key-two", key)
}

func TestStore_SourceTokenIsolatedPerUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, "first", "hash", false)
	require.NoError(t, err)
	second, err := s.CreateUser(ctx, "second", "hash", false)
	require.NoError(t, err)

	require.NoError(t, s.SaveSourceToken(ctx, first, "key-first"))

	key, err := s.SourceToken(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, key)
}
