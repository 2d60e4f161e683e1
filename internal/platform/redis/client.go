// Package redis owns the shared Redis connection used by the MessageRefId
// registry. Connection setup fails fast: a misconfigured registry backend is
// a deployment error, not something to degrade around at runtime.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/config"
)

// Client embeds the go-redis client and adds the liveness probe exposed on
// /healthz.
type Client struct {
	*redis.Client
}

// New dials Redis and verifies the connection with a ping before returning.
// An empty URL means the registry runs in memory; callers get (nil, nil) and
// must treat a nil client as "not configured".
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the registry backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
