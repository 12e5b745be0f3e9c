// Package redis wraps go-redis/v9 for the query result cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
)

const scanBatch = 100

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a PING bounded by
// timeout.
func NewClient(ctx context.Context, cfg config.RedisConfig, timeout time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, key).Bytes()
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// DeleteByPattern scans for keys matching the glob pattern and unlinks them
// one scan page at a time, returning the number of keys removed.
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("scanning pattern %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Unlink(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("unlinking %d keys: %w", len(keys), err)
			}
			deleted += n
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
