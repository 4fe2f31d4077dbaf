package interfaces

import (
	"context"
	"time"
)

// CacheStore persists encoded cache entries together with the tags used to
// invalidate them. A zero ttl keeps the entry until one of its tags is
// invalidated.
//
// Every tag carries a generation that InvalidateTags bumps. Readers snapshot
// generations before computing a value and store it with SetIfCurrent, which
// refuses the write when an invalidation landed in between.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) error
	TagVersions(ctx context.Context, tags ...string) (map[string]int64, error)
	SetIfCurrent(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration, versions map[string]int64) (bool, error)
	InvalidateTags(ctx context.Context, tags ...string) error
	Clear(ctx context.Context) error
}
