package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryList_RevokeAndExpire(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	list := NewMemoryList(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entries lapse once the token would have expired")
}

func TestMemoryList_IgnoresEmptyAndNonPositive(t *testing.T) {
	list := NewMemoryList()
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "", time.Hour))
	require.NoError(t, list.Revoke(ctx, "jti-2", 0))

	revoked, err := list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = list.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryList_PurgesOnWrite(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	list := NewMemoryList(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "stale", time.Minute))
	now = now.Add(time.Hour)
	require.NoError(t, list.Revoke(ctx, "fresh", time.Minute))

	list.mu.RLock()
	defer list.mu.RUnlock()
	assert.NotContains(t, list.revoked, "stale")
	assert.Contains(t, list.revoked, "fresh")
}
