package credstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyportal/authkit/pkg/credstore"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	t.Run("starts empty", func(t *testing.T) {
		creds, err := store.Credentials(ctx)
		require.NoError(t, err)
		assert.False(t, creds.Complete())

		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("round-trips credentials and user", func(t *testing.T) {
		require.NoError(t, store.SetCredentials(ctx, credstore.Credentials{AccessToken: "a", RefreshToken: "r"}))
		require.NoError(t, store.SetCachedUser(ctx, &credstore.UserSnapshot{Username: "ram", Email: "ram@example.com"}))

		creds, err := store.Credentials(ctx)
		require.NoError(t, err)
		assert.True(t, creds.Complete())
		assert.Equal(t, "a", creds.AccessToken)

		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "ram", user.Username)
	})

	t.Run("returned snapshot is a copy", func(t *testing.T) {
		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		user.Username = "mutated"

		again, err := store.CachedUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ram", again.Username)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))

		creds, err := store.Credentials(ctx)
		require.NoError(t, err)
		assert.Empty(t, creds.AccessToken)
		assert.Empty(t, creds.RefreshToken)

		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestMemoryStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SetCredentials(ctx, credstore.Credentials{AccessToken: "a", RefreshToken: "r"})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Credentials(ctx)
		}()
	}
	wg.Wait()

	// Writers store whole snapshots: whatever won, the pair is consistent.
	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Complete())
}

func TestCredentials_Complete(t *testing.T) {
	assert.True(t, credstore.Credentials{AccessToken: "a", RefreshToken: "r"}.Complete())
	assert.False(t, credstore.Credentials{AccessToken: "a"}.Complete())
	assert.False(t, credstore.Credentials{RefreshToken: "r"}.Complete())
	assert.False(t, credstore.Credentials{}.Complete())
}
