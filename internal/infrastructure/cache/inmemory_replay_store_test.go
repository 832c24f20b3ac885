package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryReplayStore_MarkSeen(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new request as seen", func(t *testing.T) {
		isNew, err := store.MarkSeen(ctx, "req-1", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new request should return true")
	})

	t.Run("returns false for already seen request", func(t *testing.T) {
		isNew, err := store.MarkSeen(ctx, "req-2", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkSeen(ctx, "req-2", 1*time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "already seen request should return false")
	})

	t.Run("treats request as new after expiration", func(t *testing.T) {
		ttl := 10 * time.Millisecond

		isNew, err := store.MarkSeen(ctx, "req-3", ttl)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkSeen(ctx, "req-3", ttl)
		require.NoError(t, err)
		assert.True(t, isNew, "expired request should be treated as new")
	})
}

func TestInMemoryReplayStore_IsSeen(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns false for unknown request", func(t *testing.T) {
		seen, err := store.IsSeen(ctx, "unknown-request")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("returns true for seen request", func(t *testing.T) {
		_, err := store.MarkSeen(ctx, "seen-request", 1*time.Hour)
		require.NoError(t, err)

		seen, err := store.IsSeen(ctx, "seen-request")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("returns false for expired request", func(t *testing.T) {
		_, err := store.MarkSeen(ctx, "expired-request", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		seen, err := store.IsSeen(ctx, "expired-request")
		require.NoError(t, err)
		assert.False(t, seen)
	})
}

func TestInMemoryReplayStore_ConcurrentMarkSeen(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	newCount := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkSeen(ctx, "contested-request", 1*time.Hour)
			require.NoError(t, err)
			if isNew {
				mu.Lock()
				newCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly one goroutine wins the first-seen race.
	assert.Equal(t, 1, newCount)
}

func TestInMemoryReplayStore_Close(t *testing.T) {
	store := NewInMemoryReplayStore()

	require.NoError(t, store.Close())
	// Close is safe to call twice
	require.NoError(t, store.Close())
}

func TestInMemoryReplayStore_Size(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()
	assert.Equal(t, 0, store.Size())

	_, err := store.MarkSeen(ctx, "a", time.Hour)
	require.NoError(t, err)
	_, err = store.MarkSeen(ctx, "b", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Size())
}
