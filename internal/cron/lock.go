package cron

import (
	"context"
	"time"
)

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// RedisLock guards a named job so only one worker instance runs it at a time.
type RedisLock struct {
	store lockStore
	ttl   time.Duration
}

// NewRedisLock builds a lock with the provided lease TTL.
func NewRedisLock(store lockStore, ttl time.Duration) *RedisLock {
	return &RedisLock{store: store, ttl: ttl}
}

// Acquire takes the lock for the named job. Returns false when another
// worker already holds it.
func (l *RedisLock) Acquire(ctx context.Context, name string) (bool, error) {
	return l.store.SetNX(ctx, l.store.LockKey(name), time.Now().UTC().Format(time.RFC3339), l.ttl)
}

// Release drops the lock. The TTL covers the crash case where Release
// never runs.
func (l *RedisLock) Release(ctx context.Context, name string) error {
	return l.store.Del(ctx, l.store.LockKey(name))
}
