package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/commerce-insights/internal/cache"
)

type view struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

func newStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.NewRedisStore(rdb, "test", time.Minute), mr
}

func TestRedisStore_MissThenHit(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	key := cache.Key("overview", "7d", "2024-06-15")

	var got view
	found, err := store.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, key, view{Label: "Last 7 Days", Total: 12.5}))
	assert.True(t, mr.Exists("test:dashboard:overview:7d:2024-06-15"))

	found, err = store.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, view{Label: "Last 7 Days", Total: 12.5}, got)
}

func TestRedisStore_EntriesExpire(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", view{Total: 1}))
	mr.FastForward(2 * time.Minute)

	var got view
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_CorruptEntryIsAnError(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("test:dashboard:bad", "{not json"))

	var got view
	_, err := store.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
}

func TestRedisStore_InvalidateAllKeepsOtherKeys(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, k, view{Label: k}))
	}
	require.NoError(t, mr.Set("segment:create:vip", "owner"))

	n, err := store.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, mr.Exists("test:dashboard:a"))
	assert.True(t, mr.Exists("segment:create:vip"))
}

func TestNop(t *testing.T) {
	var s cache.Store = cache.Nop{}
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", view{}))
	found, err := s.Get(ctx, "k", &view{})
	require.NoError(t, err)
	assert.False(t, found)
}
