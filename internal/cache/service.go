package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-pageblocks/internal/logging"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

// Service is the tag cache used by the read path. Values are stored JSON
// encoded so every hit decodes a fresh copy.
type Service struct {
	store  interfaces.CacheStore
	bypass bool
	group  singleflight.Group
	logger interfaces.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBypass disables caching; every call computes.
func WithBypass(bypass bool) Option {
	return func(s *Service) {
		s.bypass = bypass
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wraps store. A nil store yields a bypassing service.
func NewService(store interfaces.CacheStore, opts ...Option) *Service {
	s := &Service{store: store, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		s.bypass = true
	}
	return s
}

// Bypassed reports whether the service computes on every call.
func (s *Service) Bypassed() bool {
	return s == nil || s.bypass
}

// Cached returns the value stored at key, computing and storing it under tags
// on a miss. Concurrent misses for one key share a single computation. A value
// computed while one of tags was invalidated is returned but not stored. Store
// errors are returned as-is.
func Cached[T any](ctx context.Context, s *Service, key string, tags []string, policy Policy, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if s.Bypassed() {
		return compute(ctx)
	}

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		var value T
		err := json.Unmarshal(raw, &value)
		if err == nil {
			s.logger.Trace("cache.hit", "key", key)
			return value, nil
		}
		s.logger.Warn("cache.decode_failed", "key", key, "error", err)
	}

	s.logger.Debug("cache.miss", "key", key)
	shared, err, _ := s.group.Do(key, func() (any, error) {
		guarded := mergeTags(tags)
		versions, err := s.store.TagVersions(ctx, guarded...)
		if err != nil {
			return nil, err
		}
		computeCtx, c := withCollector(ctx)
		value, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", key, err)
		}
		stored, err := s.store.SetIfCurrent(ctx, key, encoded, mergeTags(guarded, c.collected()), policy.TTL, versions)
		if err != nil {
			return nil, err
		}
		if !stored {
			s.logger.Debug("cache.store_skipped", "key", key, "tags", guarded)
		}
		return encoded, nil
	})
	if err != nil {
		return zero, err
	}

	var value T
	if err := json.Unmarshal(shared.([]byte), &value); err != nil {
		return zero, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return value, nil
}

// Invalidate drops every entry carrying any of tags.
func (s *Service) Invalidate(ctx context.Context, tags ...string) error {
	if s == nil || s.store == nil {
		return nil
	}
	tags = mergeTags(tags)
	if len(tags) == 0 {
		return nil
	}
	if err := s.store.InvalidateTags(ctx, tags...); err != nil {
		return err
	}
	s.logger.Debug("cache.invalidated", "tags", tags)
	return nil
}

// Clear drops every entry.
func (s *Service) Clear(ctx context.Context) error {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store.Clear(ctx)
}
