package ratelimit

import (
	"context"
	"time"

	"nyumbani/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the limiter with a shared, atomically incremented keyed
// counter so the limit holds globally across horizontally scaled instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	redisKey := s.prefix + ":" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX: only the request that opens the window sets the expiry, so the
	// window is fixed, not sliding.
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, errs.Wrap(err, "redis counter increment failed")
	}

	count := int(incr.Val())
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	windowStart := time.Now().Add(remaining - window)
	return count, windowStart, nil
}
