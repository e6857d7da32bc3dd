package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimiter caps user-triggered syncs per tenant with a fixed window
// counter in Redis. The counter is shared across all server instances;
// INCR and the first-hit EXPIRE run atomically in a pipeline.
type RateLimiter struct {
	rdb    *goredis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(rdb *goredis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  int64(limit),
		window: window,
	}
}

// Allow records one attempt for key and reports whether it is within the
// limit for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := r.rdb.TxPipeline()

	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed for %s: %w", key, err)
	}

	return incr.Val() <= r.limit, nil
}
