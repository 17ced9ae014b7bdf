package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a cached key does not exist
var ErrCacheMiss = errors.New("cache miss")

var (
	setCacheValue = Set
	getCacheValue = Get
	delCacheValue = Del
)

// JSONCache stores JSON encoded values under a key prefix
type JSONCache struct {
	prefix string
	ttl    time.Duration
}

// NewJSONCache creates a cache whose keys are prefix + ":" + key
func NewJSONCache(prefix string, ttl time.Duration) *JSONCache {
	return &JSONCache{prefix: prefix, ttl: ttl}
}

func (c *JSONCache) key(k string) string {
	return c.prefix + ":" + k
}

// SetJSON encodes value and stores it with the cache ttl
func (c *JSONCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return setCacheValue(ctx, c.key(key), data, c.ttl)
}

// GetJSON decodes the cached value into dest; missing keys return ErrCacheMiss
func (c *JSONCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := getCacheValue(ctx, c.key(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

// Delete removes a cached value
func (c *JSONCache) Delete(ctx context.Context, key string) error {
	return delCacheValue(ctx, c.key(key))
}
