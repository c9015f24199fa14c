package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDedupeTTL outlives the last reminder threshold.
const DefaultDedupeTTL = 90 * 24 * time.Hour

// RedisDeduper claims keys with SETNX.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	return d.rdb.SetNX(ctx, key, time.Now().UTC().Unix(), d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, key).Err()
}
