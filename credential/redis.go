package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every client-side Redis failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisBackend stores credentials as plain Redis strings under a key prefix.
type RedisBackend struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisBackend creates a backend using client. prefix namespaces the keys
// ("gg" when empty).
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "gg"
	}
	return &RedisBackend{redis: client, prefix: prefix}
}

func (r *RedisBackend) key(key string) string {
	return r.prefix + ":cred:" + key
}

// Write stores value with expiry as the Redis TTL. Zero expiry means no TTL.
func (r *RedisBackend) Write(ctx context.Context, key, value string, expiry time.Duration) error {
	if expiry < 0 {
		expiry = 0
	}
	if err := r.redis.Set(ctx, r.key(key), value, expiry).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *RedisBackend) Read(ctx context.Context, key string) (string, bool, error) {
	value, err := r.redis.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return value, true, nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
