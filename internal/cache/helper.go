package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. It reports false on a miss, when Redis is
// unavailable, or when the stored value cannot be decoded.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// SetJSON stores value under key. Failures are ignored.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

// Aside serves dest from the cache or fills it with load and caches the
// result. Errors from load are returned and never cached.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	SetJSON(ctx, key, dest, ttl)
	return nil
}

// Generation reads the counter that versions a family of cached keys. ok is
// false when Redis is disabled or unreachable.
func Generation(ctx context.Context, key string) (gen int64, ok bool) {
	if client == nil {
		return 0, false
	}
	n, err := client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bump advances a generation counter. Keys filled under an older generation
// are never read again and expire on their own TTL.
func Bump(ctx context.Context, key string) {
	if client == nil {
		return
	}
	client.Incr(ctx, key)
}

// VersionedAside is Aside keyed under the current generation of genKey. The
// generation is read before load runs, so a fill that races a Bump lands
// under a retired key. Without Redis, load runs uncached.
func VersionedAside(ctx context.Context, genKey, key string, dest interface{}, ttl time.Duration, load func() error) error {
	gen, ok := Generation(ctx, genKey)
	if !ok {
		return load()
	}
	return Aside(ctx, VersionedKey(key, gen), dest, ttl, load)
}

// Ping reports whether Redis is reachable. A disabled cache is healthy.
func Ping(ctx context.Context) error {
	if client == nil {
		return nil
	}
	if err := client.Ping(ctx).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
