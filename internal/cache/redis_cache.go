package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"medverify/backend/internal/domain"
)

type RedisAnchorCache struct {
	client *redis.Client
}

func NewRedisAnchorCache(addr string, password string, db int) *RedisAnchorCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisAnchorCache{client: client}
}

func (c *RedisAnchorCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAnchorCache) Close() error {
	return c.client.Close()
}

func (c *RedisAnchorCache) GetExists(ctx context.Context, identifier string) (bool, bool, error) {
	val, err := c.client.Get(ctx, existsKey(identifier)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return val == "1", true, nil
}

func (c *RedisAnchorCache) SetExists(ctx context.Context, identifier string, exists bool, ttl time.Duration) error {
	val := "0"
	if exists {
		val = "1"
	}
	return c.client.Set(ctx, existsKey(identifier), val, ttl).Err()
}

func (c *RedisAnchorCache) GetBatch(ctx context.Context, identifier string) (*domain.BatchData, bool, error) {
	val, err := c.client.Get(ctx, batchKey(identifier)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var batch domain.BatchData
	if err := json.Unmarshal([]byte(val), &batch); err != nil {
		return nil, false, err
	}
	return &batch, true, nil
}

func (c *RedisAnchorCache) SetBatch(ctx context.Context, identifier string, batch *domain.BatchData, ttl time.Duration) error {
	if batch == nil {
		return nil
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, batchKey(identifier), payload, ttl).Err()
}

func existsKey(identifier string) string {
	return "anchor:exists:" + identifier
}

func batchKey(identifier string) string {
	return "anchor:batch:" + identifier
}
