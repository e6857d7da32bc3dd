// Package redis wraps the asynq client and server used to queue and consume
// CRM sync jobs, plus the Redis-backed sync lock and rate limiter.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/lineuphq/lineup/redis/config"
)

// Client wraps asynq client functionality for enqueueing sync tasks.
type Client struct {
	client *asynq.Client
	cfg    *config.RedisConfig
	mu     sync.RWMutex
}

// NewClient creates a new queue client with the provided configuration.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	if err := client.Ping(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
	}, nil
}

// EnqueueTask enqueues a task with the given type and payload. Options such
// as asynq.MaxRetry, asynq.Queue, asynq.Timeout and asynq.Unique pass
// through to asynq.
func (c *Client) EnqueueTask(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", task.Type(), err)
	}

	return nil
}

// Close closes the underlying asynq client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.client.Close()
}
