package cache

import (
	"context"
	"time"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/pkg/logger"
)

// Backend is the raw key/value surface shared by the distributed cache and
// the in-process fallback. A nil value with a nil error from Get means miss.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	DelPattern(ctx context.Context, pattern string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Flush(ctx context.Context) error
	IsConnected() bool
	Name() string
}

// Connect picks the backend once at startup: Redis when the initial probe
// succeeds, the local in-memory map otherwise. There is no later
// re-promotion; a Redis that comes up after startup stays unused until the
// process restarts.
func Connect(cfg config.RedisConfig, log *logger.Logger) Backend {
	redisBackend := NewRedisBackend(cfg, log)

	probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := redisBackend.Ping(probeCtx); err != nil {
		log.Warn("cache_fallback_local", map[string]interface{}{
			"redis_addr": cfg.Addr,
			"error":      err.Error(),
		})
		return NewMemoryBackend()
	}

	log.Info("cache_connected", map[string]interface{}{
		"backend":    "redis",
		"redis_addr": cfg.Addr,
	})
	return redisBackend
}
