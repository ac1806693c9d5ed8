package credstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyportal/authkit/pkg/credstore"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := credstore.NewFileStore(path)
	require.NoError(t, err)

	t.Run("missing file reads as empty", func(t *testing.T) {
		creds, err := store.Credentials(ctx)
		require.NoError(t, err)
		assert.False(t, creds.Complete())
	})

	t.Run("persists across instances", func(t *testing.T) {
		require.NoError(t, store.SetCredentials(ctx, credstore.Credentials{AccessToken: "a", RefreshToken: "r"}))
		require.NoError(t, store.SetCachedUser(ctx, &credstore.UserSnapshot{Email: "sita@example.com"}))

		reopened, err := credstore.NewFileStore(path)
		require.NoError(t, err)

		creds, err := reopened.Credentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a", creds.AccessToken)
		assert.Equal(t, "r", creds.RefreshToken)

		user, err := reopened.CachedUser(ctx)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "sita@example.com", user.Email)
	})

	t.Run("file is private", func(t *testing.T) {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("clear wipes stored state", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))

		creds, err := store.Credentials(ctx)
		require.NoError(t, err)
		assert.False(t, creds.Complete())

		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("corrupted file reads as empty", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		creds, err := store.Credentials(ctx)
		require.NoError(t, err)
		assert.False(t, creds.Complete())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := credstore.NewFileStore("")
		assert.ErrorIs(t, err, credstore.ErrInvalidPath)
	})
}
