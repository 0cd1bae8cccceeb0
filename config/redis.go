package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is optional: it backs the sweep run-lock and the geocode cache.
// When REDIS_ADDR is unset (or the server is unreachable) both features
// degrade gracefully, so a failed connect is logged rather than fatal.
var Redis *redis.Client

func ConnectRedis() {
	if AppConfig.RedisAddr == "" {
		zap.L().Info("REDIS_ADDR not set; running without Redis")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     AppConfig.RedisAddr,
		Password: AppConfig.RedisPassword,
		DB:       AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("Redis unreachable; running without Redis", zap.Error(err))
		return
	}

	Redis = client
}
