package redis

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache connects to the Redis named by REDIS_TEST_ADDR and flushes the selected DB.
func newTestCache(t *testing.T) *CatalogCache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return newCatalogCache(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStorage_GetMissingReturnsNil(t *testing.T) {
	cache := newTestCache(t)

	data, err := cache.Get(context.Background(), "liked-tactics-storage:device-1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStorage_SetThenGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	doc := []byte(`{"state":{"likedTactics":[]},"version":0}`)

	require.NoError(t, cache.Set(ctx, "liked-tactics-storage:device-1", doc))

	data, err := cache.Get(ctx, "liked-tactics-storage:device-1")
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(data))
}

func TestPopularity_IncrementAndTop(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p2", "p3", "p3", "p3"} {
		_, err := cache.IncrementLikes(ctx, id, 1)
		require.NoError(t, err)
	}
	count, err := cache.IncrementLikes(ctx, "p1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	top, err := cache.TopPlaylists(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "p3", top[0].PlaylistID)
	assert.Equal(t, int64(3), top[0].Likes)
	assert.Equal(t, "p2", top[1].PlaylistID)

	likes, err := cache.GetLikes(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, likes)
}

func TestPopularity_DecrementClampsAtZero(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	count, err := cache.IncrementLikes(ctx, "p1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	likes, err := cache.GetLikes(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, likes)
}

func TestPopularity_ConcurrentIncrementsFromDriftedCount(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	// A stale restore left the count below zero
	require.NoError(t, cache.client.ZAdd(ctx, cache.popularityKey(), redis.Z{Score: -1, Member: "p1"}).Err())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.IncrementLikes(ctx, "p1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// The first increment lands on zero; none of the other 99 are lost
	likes, err := cache.GetLikes(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(99), likes)
}

func TestPopularity_BatchRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	counts := map[string]int64{"p1": 4, "p2": 9}

	require.NoError(t, cache.BatchSetLikeCounts(ctx, counts))
	require.NoError(t, cache.BatchSetLikeCounts(ctx, nil))

	got, err := cache.GetAllLikeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, counts, got)
}
