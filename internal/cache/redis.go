package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis with a server-side TTL, so any entry it
// returns is fresh by construction and age is reported as zero. Suitable
// for horizontally scaled deployments where an in-process map would split
// the cache per replica.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(callerID, payloadHash string) string {
	return "routecache:" + callerID + ":" + payloadHash
}

func (s *RedisStore) Get(ctx context.Context, callerID, payloadHash string) ([]byte, time.Duration, bool, error) {
	value, err := s.rdb.Get(ctx, redisKey(callerID, payloadHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get: %w", err)
	}
	return value, 0, true, nil
}

func (s *RedisStore) Set(ctx context.Context, callerID, payloadHash string, value []byte) error {
	if err := s.rdb.Set(ctx, redisKey(callerID, payloadHash), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
