package throttle

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window Limiter over Redis INCR/EXPIRE, giving all
// replicas one shared counter per caller and window.
type RedisLimiter struct {
	rdb    *redis.Client
	window time.Duration
	limit  int
}

func NewRedisLimiter(rdb *redis.Client, window time.Duration, limit int) *RedisLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisLimiter{rdb: rdb, window: window, limit: limit}
}

func (l *RedisLimiter) key(callerID string) string {
	return "throttle:" + callerID
}

func (l *RedisLimiter) Admit(ctx context.Context, callerID string) (bool, time.Duration, error) {
	key := l.key(callerID)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("throttle incr: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("throttle expire: %w", err)
		}
	}
	if count > int64(l.limit) {
		ttl, err := l.rdb.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
