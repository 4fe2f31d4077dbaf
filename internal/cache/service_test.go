package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

type counter struct {
	calls atomic.Int32
}

func (c *counter) compute(value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		c.calls.Add(1)
		return value, nil
	}
}

func TestCachedInvalidatesOnlyTaggedEntries(t *testing.T) {
	ctx := context.Background()
	svc := cache.NewService(cache.NewMemoryStore())

	services, home := &counter{}, &counter{}
	read := func() {
		if _, err := cache.Cached(ctx, svc, cache.Key("page", "services", "en"), cache.PageTags("services", "en"), cache.Forever(), services.compute("services")); err != nil {
			t.Fatalf("cached services: %v", err)
		}
		if _, err := cache.Cached(ctx, svc, cache.Key("page", "home", "en"), cache.PageTags("home", "en"), cache.Forever(), home.compute("home")); err != nil {
			t.Fatalf("cached home: %v", err)
		}
	}

	read()
	read()
	if services.calls.Load() != 1 || home.calls.Load() != 1 {
		t.Fatalf("expected one compute each, got services=%d home=%d", services.calls.Load(), home.calls.Load())
	}

	if err := svc.Invalidate(ctx, cache.PageTag("services", "en")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	read()
	if services.calls.Load() != 2 || home.calls.Load() != 1 {
		t.Fatalf("expected only services recomputed, got services=%d home=%d", services.calls.Load(), home.calls.Load())
	}

	if err := svc.Invalidate(ctx, cache.TagPagesAll); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	read()
	if services.calls.Load() != 3 || home.calls.Load() != 2 {
		t.Fatalf("expected both recomputed after pages:all, got services=%d home=%d", services.calls.Load(), home.calls.Load())
	}
}

func TestCachedCollectsComputeTags(t *testing.T) {
	ctx := context.Background()
	svc := cache.NewService(cache.NewMemoryStore())
	calls := 0
	compute := func(ctx context.Context) ([]string, error) {
		calls++
		cache.AddTags(ctx, cache.PageTag("about", "en"))
		return []string{"fallback"}, nil
	}

	for i := 0; i < 2; i++ {
		if _, err := cache.Cached(ctx, svc, cache.Key("page", "about", "fr"), cache.PageTags("about", "fr"), cache.Forever(), compute); err != nil {
			t.Fatalf("cached: %v", err)
		}
	}
	if err := svc.Invalidate(ctx, cache.PageTag("about", "en")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.Cached(ctx, svc, cache.Key("page", "about", "fr"), cache.PageTags("about", "fr"), cache.Forever(), compute); err != nil {
		t.Fatalf("cached: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected resolved-locale tag to bust fallback entry, got %d computes", calls)
	}
	cache.AddTags(ctx, "ignored")
}

func TestCachedBypass(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	svc := cache.NewService(store, cache.WithBypass(true))
	c := &counter{}
	for i := 0; i < 3; i++ {
		if _, err := cache.Cached(ctx, svc, "k", nil, cache.Forever(), c.compute("v")); err != nil {
			t.Fatalf("cached: %v", err)
		}
	}
	if c.calls.Load() != 3 || store.Len() != 0 {
		t.Fatalf("expected bypass to compute every time without storing, calls=%d len=%d", c.calls.Load(), store.Len())
	}
	if !cache.NewService(nil).Bypassed() {
		t.Fatalf("expected nil store to bypass")
	}
}

func TestCachedRevalidatePolicy(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore(cache.WithClock(func() time.Time { return now }))
	svc := cache.NewService(store)
	c := &counter{}

	get := func() {
		if _, err := cache.Cached(ctx, svc, cache.Key("locales", "", ""), []string{cache.TagLocales}, cache.Revalidate(time.Hour), c.compute("en")); err != nil {
			t.Fatalf("cached: %v", err)
		}
	}
	get()
	now = now.Add(59 * time.Minute)
	get()
	now = now.Add(2 * time.Minute)
	get()
	if c.calls.Load() != 2 {
		t.Fatalf("expected recompute after revalidate period, got %d", c.calls.Load())
	}
}

type failingStore struct {
	cache.NoopStore
	err error
}

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }

func TestCachedPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("store down")
	svc := cache.NewService(failingStore{err: boom})
	_, err := cache.Cached(context.Background(), svc, "k", nil, cache.Forever(), func(context.Context) (int, error) { return 1, nil })
	if err != boom {
		t.Fatalf("expected store error unmodified, got %v", err)
	}
}

func TestCachedPropagatesComputeErrors(t *testing.T) {
	boom := errors.New("db down")
	store := cache.NewMemoryStore()
	svc := cache.NewService(store)
	_, err := cache.Cached(context.Background(), svc, "k", nil, cache.Forever(), func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected failed compute not to be stored")
	}
}

func TestCachedCoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	svc := cache.NewService(cache.NewMemoryStore())
	release := make(chan struct{})
	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := cache.Cached(ctx, svc, "shared", nil, cache.Forever(), compute); err != nil || v != "value" {
				t.Errorf("unexpected result %q, %v", v, err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected a single shared computation, got %d", calls.Load())
	}
}

func TestCachedDropsValueComputedAcrossInvalidation(t *testing.T) {
	stores := map[string]func(t *testing.T) interfaces.CacheStore{
		"memory": func(*testing.T) interfaces.CacheStore { return cache.NewMemoryStore() },
		"redis":  newRedisCacheStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := cache.NewService(store(t))
			key := cache.Key("page", "services", "en")
			tags := cache.PageTags("services", "en")

			var current atomic.Value
			current.Store("old")
			readStarted := make(chan struct{})
			release := make(chan struct{})
			slow := func(context.Context) (string, error) {
				value := current.Load().(string)
				close(readStarted)
				<-release
				return value, nil
			}

			done := make(chan string)
			go func() {
				v, err := cache.Cached(ctx, svc, key, tags, cache.Forever(), slow)
				if err != nil {
					t.Errorf("slow read: %v", err)
				}
				done <- v
			}()

			<-readStarted
			current.Store("new")
			if err := svc.Invalidate(ctx, tags...); err != nil {
				t.Fatalf("invalidate: %v", err)
			}
			close(release)
			if got := <-done; got != "old" {
				t.Fatalf("expected in-flight read to return its snapshot, got %q", got)
			}

			fresh := func(context.Context) (string, error) { return current.Load().(string), nil }
			got, err := cache.Cached(ctx, svc, key, tags, cache.Forever(), fresh)
			if err != nil {
				t.Fatalf("cached: %v", err)
			}
			if got != "new" {
				t.Fatalf("expected stale value not to outlive the invalidation, got %q", got)
			}
		})
	}
}

func newRedisCacheStore(t *testing.T) interfaces.CacheStore {
	store, _ := newRedisStore(t)
	return store
}

func TestTagHelpers(t *testing.T) {
	if got := cache.PageTag("services", " EN "); got != "page:services:en" {
		t.Fatalf("unexpected page tag %q", got)
	}
	if got := cache.PartnersTags("fr"); len(got) != 2 || got[0] != "partners:fr" || got[1] != cache.TagPartnersAll {
		t.Fatalf("unexpected partner tags %v", got)
	}
	if got := cache.SettingsTags("de"); got[0] != "settings:de" || got[1] != cache.TagSettingsAll {
		t.Fatalf("unexpected settings tags %v", got)
	}
	if got := cache.Key("locales", "", ""); got != "locales" {
		t.Fatalf("unexpected key %q", got)
	}
}
