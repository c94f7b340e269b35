package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/foldtable/pkg/adapters/redis"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SnapshotStore = (*redis.Store)(nil)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client)
	ports.RunSnapshotStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:"))
	err := store.Save(context.Background(), "cart-1", domain.NewSnapshot("cart-1", nil))
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:cart-1"))
	assert.False(t, mr.Exists(redis.DefaultPrefix+"cart-1"))
}

func TestRedisStore_VersionCheck(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client, redis.WithVersionCheck(), redis.WithPrefix("checked:"))
	ctx := context.Background()

	snap := domain.NewSnapshot("cart-1", domain.Document{"count": 1.0})
	snap.Version = 2
	require.NoError(t, store.Save(ctx, "cart-1", snap))

	v, err := store.Version(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// Same version is accepted.
	require.NoError(t, store.Save(ctx, "cart-1", snap))

	stale := domain.NewSnapshot("cart-1", domain.Document{"count": 0.0})
	stale.Version = 1
	err = store.Save(ctx, "cart-1", stale)
	assert.ErrorIs(t, err, domain.ErrStaleSnapshot)

	loaded, err := store.Load(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Equal(t, 1.0, loaded.State["count"])

	snap.Version = 5
	require.NoError(t, store.Save(ctx, "cart-1", snap))
	v, err = store.Version(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestRedisStore_VersionMissing(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client)
	_, err := store.Version(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}

func TestRedisStore_NoCheckAcceptsOlder(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client)
	ctx := context.Background()

	snap := domain.NewSnapshot("s", nil)
	snap.Version = 4
	require.NoError(t, store.Save(ctx, "s", snap))
	snap.Version = 1
	require.NoError(t, store.Save(ctx, "s", snap))

	v, err := store.Version(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	streamID := "stream-ttl"

	// 1. Save
	err := store.Save(ctx, streamID, domain.NewSnapshot(streamID, domain.Document{"foo": "bar"}))
	require.NoError(t, err)

	// 2. Verify List (immediately)
	streams, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, streams, streamID)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, streamID)
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)

	// 5. The index is pruned against wall-clock time, so wait past the TTL.
	time.Sleep(1200 * time.Millisecond)

	streams, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, streams)
}
