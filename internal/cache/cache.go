// Package cache is a thin JSON read-through cache over Redis used by hot
// list endpoints. Every operation degrades to a no-op when Redis is down;
// callers always fall back to the database.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

type Cache struct {
	redis *redis.Client
}

func New(redisClient *redis.Client) *Cache {
	return &Cache{redis: redisClient}
}

// Get unmarshals the cached value for key into dest. Returns false on miss,
// on a decode error or when Redis is unavailable.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[CACHE] GET %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[CACHE] Corrupt entry for %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key for ttl. Errors are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[CACHE] Marshal for %s failed: %v", key, err)
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[CACHE] SET %s failed: %v", key, err)
	}
}

// Del invalidates a key after a write to the underlying data.
func (c *Cache) Del(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		log.Printf("[CACHE] DEL %s failed: %v", key, err)
	}
}
