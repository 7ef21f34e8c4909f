package config

import (
	"context"

	"github.com/akeren/go-waitlist/internal/log"
	pkgredis "github.com/akeren/go-waitlist/pkg/redis"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/go-redis/redis/v8"
)

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		URL:      utils.GetEnvTrimmed("REDIS_URL"),
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvOrDefault("REDIS_PORT", "6379"),
		Password: utils.GetEnvTrimmed("REDIS_PASSWORD"),
		DB:       utils.GetEnvInt("REDIS_DB", 0),
	}
}

func (rc *RedisConfig) IsConfigured() bool {
	return rc.URL != "" || rc.Host != ""
}

func (rc *RedisConfig) NewClient(ctx context.Context, logger *log.Logger) (*redis.Client, error) {
	if !rc.IsConfigured() {
		logger.Error("Redis configuration is missing")
		return nil, ErrRedisNotConfigured
	}

	client, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		URL:      rc.URL,
		Host:     rc.Host,
		Port:     rc.Port,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		return nil, err
	}

	logger.Info("Redis connected successfully")
	return client, nil
}

func CloseRedis(client *redis.Client, logger *log.Logger) error {
	if client == nil {
		return nil
	}

	if err := client.Close(); err != nil {
		logger.Error("Failed to close Redis client", "error", err)
		return err
	}

	logger.Info("Redis connection closed")
	return nil
}

var ErrRedisNotConfigured = &RedisError{Message: "REDIS_URL or REDIS_HOST must be set for the redis store driver"}

type RedisError struct {
	Message string
}

func (e *RedisError) Error() string {
	return e.Message
}
