// Package redis wraps the go-redis client used by the public-endpoint
// throttle. Redis is optional: an unset URL returns a nil client and the
// caller falls back to the in-memory throttle.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"meridian/internal/platform/config"
)

// Client wraps go-redis with a health check.
type Client struct {
	*redis.Client
}

// New creates a Redis client from config, or nil when Redis is not
// configured.
func New(cfg config.Redis) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the connection is usable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
