package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it still holds our token, so a
// lock that expired and was re-acquired by another worker is never released
// by the original holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a best-effort distributed lock on Redis (SET NX PX). It keeps
// at most one sync in flight per tenant across all worker processes.
type Locker struct {
	rdb    *goredis.Client
	mu     sync.Mutex
	tokens map[string]string
}

func NewLocker(rdb *goredis.Client) *Locker {
	return &Locker{
		rdb:    rdb,
		tokens: make(map[string]string),
	}
}

// Acquire tries to take the lock for key with the given TTL. It returns
// false when another holder has it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	if ok {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}

	return ok, nil
}

// Release gives the lock back if we still hold it.
func (l *Locker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	return nil
}
