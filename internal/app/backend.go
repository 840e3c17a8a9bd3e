package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/chatmark/internal/config"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/redis"
	"github.com/MrSnakeDoc/chatmark/internal/store"
	"github.com/MrSnakeDoc/chatmark/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/chatmark/internal/store/redis"
	"github.com/MrSnakeDoc/chatmark/internal/store/sqlite"
)

// OpenBackend opens the storage backend selected by cfg. Redis is retried
// until its connect timeout so the service fails fast when it is absent.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("using the in-memory backend, bookmarks are lost on restart")
		return memory.New(), nil

	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite backend: %w", err)
		}
		return s, nil

	case config.BackendRedis:
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
