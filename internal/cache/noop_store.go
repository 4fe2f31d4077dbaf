package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

// NoopStore never holds anything.
type NoopStore struct{}

var _ interfaces.CacheStore = NoopStore{}

func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopStore) Set(context.Context, string, []byte, []string, time.Duration) error { return nil }

func (NoopStore) TagVersions(context.Context, ...string) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (NoopStore) SetIfCurrent(context.Context, string, []byte, []string, time.Duration, map[string]int64) (bool, error) {
	return true, nil
}

func (NoopStore) InvalidateTags(context.Context, ...string) error { return nil }

func (NoopStore) Clear(context.Context) error { return nil }
