package cache

import (
	"context"
	"time"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type RedisBackend struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewRedisBackend(cfg config.RedisConfig, log *logger.Logger) *RedisBackend {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisBackend{rdb: rdb, log: log}
}

func (r *RedisBackend) Name() string {
	return "redis"
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisBackend) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.rdb.Del(ctx, keys...).Result()
}

// DelPattern walks the keyspace with SCAN rather than KEYS so a large
// invalidation never blocks the server.
func (r *RedisBackend) DelPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64

	iter := r.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := r.rdb.Del(ctx, batch...).Result()
			deleted += n
			if err != nil {
				return deleted, err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if len(batch) > 0 {
		n, err := r.rdb.Del(ctx, batch...).Result()
		deleted += n
		if err != nil {
			return deleted, err
		}
	}

	return deleted, nil
}

func (r *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisBackend) Flush(ctx context.Context) error {
	return r.rdb.FlushDB(ctx).Err()
}

func (r *RedisBackend) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return r.rdb.Ping(ctx).Err() == nil
}

func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}
