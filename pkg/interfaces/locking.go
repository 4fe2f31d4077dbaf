package interfaces

import (
	"context"
	"time"
)

// Unlock releases a lock obtained from a Locker.
type Unlock func(ctx context.Context) error

// Locker serializes administrative writes addressed by key. Implementations
// block until the lock is obtained, ctx is done, or their retry budget runs out.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}
