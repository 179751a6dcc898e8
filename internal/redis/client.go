package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/tactics-catalog/internal/config"
)

// CatalogCache provides Redis-backed liked-set storage and playlist popularity
type CatalogCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCatalogCache creates a new Redis catalog cache
func NewCatalogCache(cfg *config.RedisConfig, logger *slog.Logger) (*CatalogCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return newCatalogCache(client, logger), nil
}

func newCatalogCache(client *redis.Client, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{
		client: client,
		logger: logger,
	}
}

// Close closes the Redis connection
func (c *CatalogCache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// popularityKey returns the Redis key for the playlist popularity sorted set
func (c *CatalogCache) popularityKey() string {
	return "playlists:likes"
}
