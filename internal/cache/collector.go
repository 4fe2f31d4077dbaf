package cache

import (
	"context"
	"sync"
)

type collectorKey struct{}

type collector struct {
	mu   sync.Mutex
	tags []string
}

// AddTags attaches extra tags to the entry being computed. Compute functions
// call it once they know which records fed the result. Outside a cached
// computation it does nothing.
func AddTags(ctx context.Context, tags ...string) {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok || c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append(c.tags, tags...)
}

func withCollector(ctx context.Context) (context.Context, *collector) {
	c := &collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func (c *collector) collected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tags...)
}
