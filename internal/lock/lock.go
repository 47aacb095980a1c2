// Package lock implements a named mutual-exclusion gate on top of Redis.
// A lock is one key holding an opaque holder marker with a TTL; the TTL is
// the crash-safety valve that frees a lock whose holder never released it.
package lock

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Gate acquires and releases short-lived named locks. The Redis client is
// injected at construction; a nil client makes every Acquire fail closed.
type Gate struct {
	redis *redis.Client
}

func NewGate(redisClient *redis.Client) *Gate {
	return &Gate{redis: redisClient}
}

// Acquire attempts to take the named lock for ttl. It is a single atomic
// SET NX PX against Redis, so two racing callers can never both win. Returns
// false when the lock is held elsewhere or the store is unreachable: callers
// must skip their tick rather than proceed without the lock.
func (g *Gate) Acquire(ctx context.Context, name string, ttl time.Duration) bool {
	if g.redis == nil {
		log.Printf("[LOCK] Redis unavailable, refusing to acquire %s", name)
		return false
	}

	holder := uuid.New().String()
	ok, err := g.redis.SetNX(ctx, name, holder, ttl).Result()
	if err != nil {
		log.Printf("[LOCK] Acquire %s failed: %v", name, err)
		return false
	}
	return ok
}

// Release drops the named lock. Best-effort: on error the TTL bounds how long
// the lock can stay stale, so the failure is only logged.
func (g *Gate) Release(ctx context.Context, name string) {
	if g.redis == nil {
		return
	}
	if err := g.redis.Del(ctx, name).Err(); err != nil {
		log.Printf("[LOCK] Release %s failed: %v", name, err)
	}
}
