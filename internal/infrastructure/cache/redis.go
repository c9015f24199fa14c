package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	domaincache "ngnasoro-engine/internal/domain/cache"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}

var _ domaincache.Cache = (*RedisCache)(nil)

// scanBatch is the COUNT hint used while walking keys for invalidation.
const scanBatch = 200

type RedisCache struct{ rdb *redis.Client }

func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domaincache.ErrMiss
	}
	return v, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// InvalidatePrefix deletes every key starting with prefix. An empty prefix
// is refused so a misconfigured caller cannot flush the database.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return errors.New("cache: empty invalidation prefix")
	}
	var keys []string
	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
