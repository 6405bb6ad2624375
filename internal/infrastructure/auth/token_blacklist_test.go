package auth

import (
	"context"
	"testing"
	"time"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	bl := NewInMemoryTokenBlacklist()
	bl.now = func() time.Time { return now }

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, bl.Revoke(ctx, "jti-expired", 0))

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = bl.IsRevoked(ctx, "jti-expired")
	assert.False(t, revoked, "non-positive ttl is a no-op")

	revoked, _ = bl.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = bl.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
	assert.NotContains(t, bl.jtis, "jti-1")
}

func TestInMemoryTokenBlacklist_RevokeUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	bl := NewInMemoryTokenBlacklist()
	bl.now = func() time.Time { return now }

	revoked, err := bl.IsUserRevoked(ctx, "user-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.RevokeUser(ctx, "user-1", time.Hour))

	revoked, _ = bl.IsUserRevoked(ctx, "user-1", now.Add(-time.Hour))
	assert.True(t, revoked)
	revoked, _ = bl.IsUserRevoked(ctx, "user-1", now.Add(time.Minute))
	assert.False(t, revoked, "tokens issued after the revocation stay valid")
	revoked, _ = bl.IsUserRevoked(ctx, "user-2", now.Add(-time.Hour))
	assert.False(t, revoked)
}

func TestNewTokenBlacklist_Fallback(t *testing.T) {
	t.Run("redis disabled", func(t *testing.T) {
		bl := NewTokenBlacklist(config.RedisConfig{Enabled: false}, zap.NewNop())
		assert.IsType(t, &InMemoryTokenBlacklist{}, bl)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		if testing.Short() {
			t.Skip("dials the network")
		}
		bl := NewTokenBlacklist(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, zap.NewNop())
		assert.IsType(t, &InMemoryTokenBlacklist{}, bl)
	})
}
