package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"curator/internal/core"
)

const redisKeyPrefix = "curator:content:"

// Redis keeps responses in a Redis server shared by several processes
type Redis struct {
	client *redis.Client
	logger *core.Logger
}

// NewRedis connects to the configured server
func NewRedis(ctx context.Context, config core.CacheConfig, logger *core.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, core.NewConfigurationError(fmt.Sprintf("failed to connect to Redis at %s", config.RedisAddr), err)
	}

	logger.Info("Connected to Redis", "addr", config.RedisAddr)
	return NewRedisWithClient(client, logger), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, logger *core.Logger) *Redis {
	return &Redis{
		client: client,
		logger: logger.ForFeature("cache"),
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Failed to read cache", "key", key, "error", err)
		}
		return nil, false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		r.logger.Warn("Failed to set cache", "key", key, "error", err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
