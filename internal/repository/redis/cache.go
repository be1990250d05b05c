package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
)

const (
	modelCachePrefix = "model:"
	defaultModelTTL  = 5 * time.Minute
)

// ModelCache keeps the last model listing of each provider
type ModelCache struct {
	client *Client
	ttl    time.Duration
}

// NewModelCache creates a new model cache
func NewModelCache(client *Client, ttl time.Duration) *ModelCache {
	if ttl <= 0 {
		ttl = defaultModelTTL
	}
	return &ModelCache{client: client, ttl: ttl}
}

// Get retrieves the cached listing; a miss returns nil without error
func (c *ModelCache) Get(ctx context.Context, provider string) ([]domain.Model, error) {
	data, err := c.client.rdb.Get(ctx, modelCachePrefix+provider).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var models []domain.Model
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to unmarshal models: %w", err)
	}

	return models, nil
}

// Set caches the listing of a provider
func (c *ModelCache) Set(ctx context.Context, provider string, models []domain.Model) error {
	data, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("failed to marshal models: %w", err)
	}

	return c.client.rdb.Set(ctx, modelCachePrefix+provider, data, c.ttl).Err()
}

// Invalidate removes the cached listing of a provider
func (c *ModelCache) Invalidate(ctx context.Context, provider string) error {
	return c.client.rdb.Del(ctx, modelCachePrefix+provider).Err()
}

// FlushAll removes all cached listings
func (c *ModelCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := modelCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
