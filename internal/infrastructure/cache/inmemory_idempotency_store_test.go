package cache

import (
	"context"
	"testing"
	"time"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		ok, err := store.Claim(ctx, "key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "key-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "held key cannot be claimed again")
	})

	t.Run("expired key can be claimed", func(t *testing.T) {
		ok, err := store.Claim(ctx, "key-2", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		ok, err = store.Claim(ctx, "key-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("released key can be claimed", func(t *testing.T) {
		_, err := store.Claim(ctx, "key-3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "key-3"))

		ok, err := store.Claim(ctx, "key-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	_, _ = store.Claim(ctx, "short-1", 10*time.Millisecond)
	_, _ = store.Claim(ctx, "short-2", 10*time.Millisecond)
	_, _ = store.Claim(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	ok, err := store.Claim(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	const n = 100
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			ok, err := store.Claim(context.Background(), "payment", time.Hour)
			results <- err == nil && ok
		}()
	}

	won := 0
	for i := 0; i < n; i++ {
		if <-results {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent claim succeeds")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore_FallsBackToMemory(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RedisConfig
	}{
		{"redis disabled", config.RedisConfig{}},
		// nothing listens on port 1
		{"redis unreachable", config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewIdempotencyStore(tt.cfg, zap.NewNop())
			defer store.Close()
			assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		})
	}
}
