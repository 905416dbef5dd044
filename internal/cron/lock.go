package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/stockledger-backend/pkg/redis"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive cron runs.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLock implements Lock on top of a redislock-backed Locker. Acquire
// never waits: a held lock means another worker owns this cycle.
type RedisLock struct {
	locker pkgredis.Locker
	key    string
	ttl    time.Duration
	held   pkgredis.Releaser
}

func NewRedisLock(locker pkgredis.Locker, key string, ttl time.Duration) (*RedisLock, error) {
	if locker == nil {
		return nil, errors.New("redis locker required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{locker: locker, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	held, err := l.locker.TryObtain(ctx, l.key, l.ttl)
	if errors.Is(err, pkgredis.ErrLockNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obtain lock: %w", err)
	}
	l.held = held
	return true, nil
}

// Release frees the lock if this instance still holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.held == nil {
		return nil
	}
	err := l.held.Release(ctx)
	l.held = nil
	if err != nil && !errors.Is(err, pkgredis.ErrLockNotHeld) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
