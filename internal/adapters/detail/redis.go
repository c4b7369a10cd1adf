package detail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pomorank/pomorank/internal/domain/model"
)

// detailKeyPrefix namespaces the per-user snapshot values.
const detailKeyPrefix = "pomorank:user"

// RedisCache implements Cache on plain Redis values with TTL.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func detailKey(userID string) string {
	return fmt.Sprintf("%s:%s", detailKeyPrefix, userID)
}

// Get returns the cached snapshot or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, userID string) (model.Snapshot, error) {
	raw, err := c.rdb.Get(ctx, detailKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Snapshot{}, ErrMiss
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("get: %w: %w", ErrUnavailable, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt value is as good as absent; let the caller rebuild it.
		return model.Snapshot{}, ErrMiss
	}
	return snap, nil
}

// Put stores a snapshot for ttl.
func (c *RedisCache) Put(ctx context.Context, userID string, snap model.Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, detailKey(userID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// Invalidate drops the cached snapshot, if any.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, detailKey(userID)).Err(); err != nil {
		return fmt.Errorf("del: %w: %w", ErrUnavailable, err)
	}
	return nil
}
