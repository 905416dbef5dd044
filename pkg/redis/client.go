package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const (
	keyNamespace      = "sl"
	idempotencyPrefix = "idempotency"
	counterPrefix     = "counter"
	lockPrefix        = "lock"

	lockRetryInterval = 50 * time.Millisecond
	lockRetryLimit    = 20
)

// ErrLockNotObtained is returned when another holder owns the lock.
var ErrLockNotObtained = redislock.ErrNotObtained

// ErrLockNotHeld is returned when releasing a lock that already expired.
var ErrLockNotHeld = redislock.ErrLockNotHeld

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
}

type lockClient interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// Client wraps the redis connection helpers needed by the platform.
type Client struct {
	store  cmdable
	raw    *redis.Client
	locker lockClient
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore exposes minimal operations used by idempotency helpers.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// Releaser is a held lock.
type Releaser interface {
	Release(ctx context.Context) error
}

// Locker hands out distributed locks scoped to a key.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error)
	TryObtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error)
}

// Sequencer produces monotonically increasing per-name counters.
type Sequencer interface {
	NextSequence(ctx context.Context, name string, seed func() (int64, error)) (int64, error)
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_db", opts.DB), "redis connection established")
	}
	return &Client{store: raw, raw: raw, locker: redislock.New(raw)}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Set stores a string value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns a string value stored at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.store.Get(ctx, key).Result()
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errors.New("redis client not initialized")
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// NextSequence increments the named counter. A missing counter is first seeded
// with the value returned by seed, so the result continues an existing series.
func (c *Client) NextSequence(ctx context.Context, name string, seed func() (int64, error)) (int64, error) {
	if c.store == nil {
		return 0, errors.New("redis client not initialized")
	}
	key := c.CounterKey(name)
	if _, err := c.store.Get(ctx, key).Result(); err != nil {
		if !errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("read counter: %w", err)
		}
		start := int64(0)
		if seed != nil {
			if start, err = seed(); err != nil {
				return 0, fmt.Errorf("seed counter: %w", err)
			}
		}
		if _, err := c.store.SetNX(ctx, key, strconv.FormatInt(start, 10), 0).Result(); err != nil {
			return 0, fmt.Errorf("seed counter: %w", err)
		}
	}
	return c.store.Incr(ctx, key).Result()
}

// Obtain acquires the lock, retrying briefly while another holder owns it.
func (c *Client) Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	return c.obtain(ctx, key, ttl, redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), lockRetryLimit))
}

// TryObtain acquires the lock or fails immediately with ErrLockNotObtained.
func (c *Client) TryObtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	return c.obtain(ctx, key, ttl, redislock.NoRetry())
}

func (c *Client) obtain(ctx context.Context, key string, ttl time.Duration, strategy redislock.RetryStrategy) (Releaser, error) {
	if c.locker == nil {
		return nil, errors.New("redis lock client not initialized")
	}
	lock, err := c.locker.Obtain(ctx, c.LockKey(key), ttl, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// IdempotencyKey returns a namespaced key for idempotency storage.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

// CounterKey returns a namespaced key for counters.
func (c *Client) CounterKey(name string) string {
	return c.buildKey(counterPrefix, name)
}

// LockKey returns a namespaced key for distributed locks.
func (c *Client) LockKey(name string) string {
	return c.buildKey(lockPrefix, name)
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, keys...).Err()
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
