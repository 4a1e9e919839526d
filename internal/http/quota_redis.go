package httpx

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const quotaKeyPrefix = "synthteams:quota:"

// RedisRateLimiter shares quota windows between site replicas.
type RedisRateLimiter struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisRateLimiter connects to Redis and verifies it answers.
func NewRedisRateLimiter(ctx context.Context, addr, password string, db int) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRateLimiter{client: client, timeout: 250 * time.Millisecond}, nil
}

// Hit increments the bucket and starts its window on the first hit. The
// increment, expiry and TTL read run in one transaction.
func (l *RedisRateLimiter) Hit(ctx context.Context, bucket string, limit Limit) (Verdict, error) {
	if !limit.Enabled() {
		return Verdict{Allowed: true}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := quotaKeyPrefix + bucket
	var used *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		used = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, limit.window())
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("quota %s: %w", bucket, err)
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = limit.window()
	}
	n := int(used.Val())
	return Verdict{Allowed: n <= limit.Hits, Used: n, ResetAt: time.Now().Add(remaining)}, nil
}

// Close releases the Redis connection pool.
func (l *RedisRateLimiter) Close() {
	_ = l.client.Close()
}
