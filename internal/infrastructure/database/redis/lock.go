package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// BuildLocker hands out per-fingerprint mutexes so that replicas of the
// worker do not build the same network concurrently.
type BuildLocker struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

type LockOption func(*BuildLocker)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *BuildLocker) { l.ttl = ttl }
}

func WithRetry(count int, delay time.Duration) LockOption {
	return func(l *BuildLocker) {
		l.retryCount = count
		l.retryDelay = delay
	}
}

func WithLockPrefix(prefix string) LockOption {
	return func(l *BuildLocker) { l.prefix = prefix }
}

func NewBuildLocker(client *Client, log logging.Logger, opts ...LockOption) *BuildLocker {
	if log == nil {
		log = logging.NewNopLogger()
	}
	l := &BuildLocker{
		client:     client,
		logger:     log.Named("lock"),
		prefix:     "scaffoldnet:",
		ttl:        2 * time.Minute,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mutex is a single-owner lock identified by a random token.
type Mutex struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
	delay  time.Duration
	tries  int
}

func (l *BuildLocker) Mutex(fingerprint string) *Mutex {
	return &Mutex{
		client: l.client,
		key:    l.prefix + "lock:build:" + fingerprint,
		token:  uuid.New().String(),
		ttl:    l.ttl,
		delay:  l.retryDelay,
		tries:  l.retryCount,
	}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// TryLock makes a single acquisition attempt.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.token, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	return ok, nil
}

// Lock retries TryLock until it succeeds, the retry budget is spent or ctx
// ends.
func (m *Mutex) Lock(ctx context.Context) error {
	for i := 0; i < m.tries; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return ErrLockNotAcquired.WithDetail(m.key)
}

func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := unlockScript.Run(ctx, m.client.Underlying(), []string{m.key}, m.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld.WithDetail(m.key)
	}
	return nil
}

// Extend resets the expiry of a held lock.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, m.client.Underlying(), []string{m.key}, m.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return res == 1, nil
}

//Personal.AI order the ending
