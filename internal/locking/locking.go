package locking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

// ErrNotObtained is returned when a lock stays held past the retry budget.
var ErrNotObtained = errors.New("locking: lock not obtained")

// PageKey is the lock key serializing writes to one page translation.
func PageKey(slug, locale string) string {
	return "lock:page:" + strings.TrimSpace(slug) + ":" + locales.NormalizeCode(locale)
}

// MemoryLocker serializes holders of one key inside the process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

var _ interfaces.Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]chan struct{})}
}

// Obtain waits until key is free or ctx ends. The ttl is ignored; holders
// must call the returned Unlock.
func (m *MemoryLocker) Obtain(ctx context.Context, key string, _ time.Duration) (interfaces.Unlock, error) {
	for {
		m.mu.Lock()
		held, busy := m.locks[key]
		if !busy {
			token := make(chan struct{})
			m.locks[key] = token
			m.mu.Unlock()
			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					m.mu.Lock()
					if m.locks[key] == token {
						delete(m.locks, key)
					}
					m.mu.Unlock()
					close(token)
				})
				return nil
			}, nil
		}
		m.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, errors.Join(ErrNotObtained, ctx.Err())
		}
	}
}

// RedisLocker obtains distributed locks through redislock.
type RedisLocker struct {
	client *redislock.Client
	retry  redislock.RetryStrategy
}

var _ interfaces.Locker = (*RedisLocker)(nil)

// NewRedisLocker retries every interval up to limit times. A zero interval
// fails immediately when the lock is held.
func NewRedisLocker(client redis.UniversalClient, interval time.Duration, limit int) *RedisLocker {
	retry := redislock.NoRetry()
	if interval > 0 {
		retry = redislock.LimitRetry(redislock.LinearBackoff(interval), limit)
	}
	return &RedisLocker{client: redislock.New(client), retry: retry}
}

func (r *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (interfaces.Unlock, error) {
	lock, err := r.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}
