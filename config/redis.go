package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to REDIS_URL. It returns nil when no url is set or
// the server does not answer a ping, and callers run without rate limiting.
func NewRedisClient(conf *Config) *redis.Client {
	if conf.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		zap.S().Warnw("invalid REDIS_URL, rate limiting disabled", "error", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zap.S().Warnw("redis unreachable, rate limiting disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
