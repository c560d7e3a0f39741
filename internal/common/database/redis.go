// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"job-snatcher/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the client shared by job leases and the pending-URL queue.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds the client. Every in-flight item holds a lease round trip,
// so the pool should be at least pipeline.concurrency.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "job-snatcher",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     pool,
		MinIdleConns: pool / 5,
	})

	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
