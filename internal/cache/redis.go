package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisCache[V any] struct {
	name   string
	client *redis.Client
	opts   Options
	logger *zap.Logger
}

// NewRedis returns a cache shared through Redis. Values are stored as JSON
// under "<name>:<key>" with opts.TTL as expiry. Redis maxmemory policy, not
// opts.MaxEntries, bounds its size.
func NewRedis[V any](name string, client *redis.Client, opts Options, logger *zap.Logger) Cache[V] {
	return &redisCache[V]{
		name:   name,
		client: client,
		opts:   opts,
		logger: logger,
	}
}

func (c *redisCache[V]) key(k string) string {
	return c.name + ":" + k
}

func (c *redisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache read failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		}
		recordLookup(c.name, false)
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("Cache entry could not be decoded", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		recordLookup(c.name, false)
		return zero, false
	}

	recordLookup(c.name, true)
	return v, true
}

func (c *redisCache[V]) Set(ctx context.Context, key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache entry could not be encoded", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, c.key(key), data, c.opts.TTL).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
}

func (c *redisCache[V]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Error("Cache eviction failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
}
