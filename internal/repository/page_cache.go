package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neemee-server/internal/domain"

	"github.com/redis/go-redis/v9"
)

const pageCacheKeyPrefix = "neemee:pagecache:"

// PageCache stores raw page HTML in Redis under a short TTL so any server
// instance can serve the capture-redirect retrieval. Entries are read once
// and removed.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPageCache(client *redis.Client, ttl time.Duration) domain.PageCache {
	return &PageCache{client: client, ttl: ttl}
}

func (c *PageCache) Put(ctx context.Context, token, html string) error {
	key := pageCacheKeyPrefix + token
	if err := c.client.Set(ctx, key, html, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page html: %w", err)
	}
	return nil
}

func (c *PageCache) Take(ctx context.Context, token string) (string, error) {
	key := pageCacheKeyPrefix + token
	html, err := c.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrPageCacheEntryNotFound
		}
		return "", fmt.Errorf("failed to read cached page html: %w", err)
	}
	return html, nil
}
