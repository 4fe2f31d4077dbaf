package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

type memoryEntry struct {
	value     []byte
	tags      []string
	expiresAt time.Time
}

// MemoryStore keeps entries in process with a tag to key index.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	byTag    map[string]map[string]struct{}
	versions map[string]int64
	now      func() time.Time
}

var _ interfaces.CacheStore = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries:  make(map[string]memoryEntry),
		byTag:    make(map[string]map[string]struct{}),
		versions: make(map[string]int64),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.removeLocked(key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Set replaces the entry at key. A zero ttl never expires.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value, tags, ttl)
	return nil
}

func (m *MemoryStore) TagVersions(_ context.Context, tags ...string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(tags))
	for _, tag := range tags {
		out[tag] = m.versions[tag]
	}
	return out, nil
}

// SetIfCurrent stores the entry only while every tag in versions still has the
// recorded generation.
func (m *MemoryStore) SetIfCurrent(_ context.Context, key string, value []byte, tags []string, ttl time.Duration, versions map[string]int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tag, version := range versions {
		if m.versions[tag] != version {
			return false, nil
		}
	}
	m.setLocked(key, value, tags, ttl)
	return true, nil
}

func (m *MemoryStore) setLocked(key string, value []byte, tags []string, ttl time.Duration) {
	m.removeLocked(key)

	entry := memoryEntry{
		value: append([]byte(nil), value...),
		tags:  append([]string(nil), tags...),
	}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	for _, tag := range entry.tags {
		keys, ok := m.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (m *MemoryStore) InvalidateTags(_ context.Context, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		m.versions[tag]++
		for key := range m.byTag[tag] {
			m.removeLocked(key)
		}
		delete(m.byTag, tag)
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	m.byTag = make(map[string]map[string]struct{})
	return nil
}

// Len reports the number of live and expired-but-unswept entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) removeLocked(key string) {
	entry, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range entry.tags {
		if keys, ok := m.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.byTag, tag)
			}
		}
	}
}
