package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tactics-catalog/internal/domain"
)

// incrementLikes adds ARGV[1] to member ARGV[2] and clamps the result at zero
// in one step, so a concurrent increment cannot be overwritten by the clamp.
var incrementLikes = redis.NewScript(`
local count = tonumber(redis.call('ZINCRBY', KEYS[1], ARGV[1], ARGV[2]))
if count < 0 then
	redis.call('ZADD', KEYS[1], 0, ARGV[2])
	return 0
end
return count
`)

// IncrementLikes adjusts a playlist's like count by delta and returns the new
// count. Counts restored from a stale snapshot can drift, so they never go below zero.
func (c *CatalogCache) IncrementLikes(ctx context.Context, playlistID string, delta int64) (int64, error) {
	count, err := incrementLikes.Run(ctx, c.client, []string{c.popularityKey()}, delta, playlistID).Int64()
	if err != nil {
		return 0, fmt.Errorf("incrementing likes: %w", err)
	}
	return count, nil
}

// GetLikes returns a playlist's like count, zero when it has never been liked
func (c *CatalogCache) GetLikes(ctx context.Context, playlistID string) (int64, error) {
	count, err := c.client.ZScore(ctx, c.popularityKey(), playlistID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting likes: %w", err)
	}
	return int64(count), nil
}

// TopPlaylists returns the n most liked playlist ids with their counts (descending order)
func (c *CatalogCache) TopPlaylists(ctx context.Context, n int) ([]domain.PlaylistLikes, error) {
	if n <= 0 {
		return []domain.PlaylistLikes{}, nil
	}
	results, err := c.client.ZRevRangeByScoreWithScores(ctx, c.popularityKey(), &redis.ZRangeBy{
		Min:   "(0",
		Max:   "+inf",
		Count: int64(n),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top playlists: %w", err)
	}
	return toPlaylistLikes(results), nil
}

// GetAllLikeCounts returns every playlist's like count
func (c *CatalogCache) GetAllLikeCounts(ctx context.Context) (map[string]int64, error) {
	results, err := c.client.ZRangeWithScores(ctx, c.popularityKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting all like counts: %w", err)
	}
	counts := make(map[string]int64, len(results))
	for _, result := range results {
		counts[result.Member.(string)] = int64(result.Score)
	}
	return counts, nil
}

// BatchSetLikeCounts sets multiple like counts using pipelining
func (c *CatalogCache) BatchSetLikeCounts(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for playlistID, count := range counts {
		pipe.ZAdd(ctx, c.popularityKey(), redis.Z{
			Score:  float64(count),
			Member: playlistID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("batch setting like counts: %w", err)
	}
	return nil
}

func toPlaylistLikes(results []redis.Z) []domain.PlaylistLikes {
	entries := make([]domain.PlaylistLikes, len(results))
	for i, result := range results {
		entries[i] = domain.PlaylistLikes{
			PlaylistID: result.Member.(string),
			Likes:      int64(result.Score),
		}
	}
	return entries
}
