package repositories

import (
	"context"
	"fmt"
	"time"

	"scanpay/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the shared client set by InitRedis.
var RedisClient *redis.Client

// RedisConfig holds all Redis connection configuration
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisConfig combines the address from cfg with pool settings from the
// environment.
func NewRedisConfig(cfg *config.Config) *RedisConfig {
	return &RedisConfig{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     config.GetIntEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: config.GetIntEnv("REDIS_MIN_IDLE_CONNS", 5),
		DialTimeout:  config.GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  config.GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: config.GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

// InitRedis connects and pings Redis.
func InitRedis(ctx context.Context, rc *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Addr,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
	}

	RedisClient = client
	return client, nil
}
