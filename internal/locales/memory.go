package locales

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/google/uuid"
)

// MemoryRepository keeps locales in insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]*Locale
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byKey: make(map[string]*Locale),
		now:   time.Now,
	}
}

func (m *MemoryRepository) List(_ context.Context) ([]*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Locale, 0, len(m.order))
	for _, code := range m.order {
		out = append(out, cloneLocale(m.byKey[code]))
	}
	return out, nil
}

func (m *MemoryRepository) GetByCode(_ context.Context, code string) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.byKey[NormalizeCode(code)]
	if !ok {
		return nil, &NotFoundError{Code: code}
	}
	return cloneLocale(record), nil
}

// Upsert inserts or replaces a locale keyed by code. Marking the record as
// default clears the flag on every other locale.
func (m *MemoryRepository) Upsert(_ context.Context, locale *Locale) (*Locale, error) {
	if locale == nil {
		return nil, ErrCodeRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	record := cloneLocale(locale)
	record.Code = NormalizeCode(record.Code)
	now := m.now().UTC()
	existing, ok := m.byKey[record.Code]
	if ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.Position = existing.Position
	} else {
		if record.ID == uuid.Nil {
			record.ID = identity.LocaleUUID(record.Code)
		}
		record.CreatedAt = now
		record.Position = len(m.order)
		m.order = append(m.order, record.Code)
	}
	record.UpdatedAt = now
	m.byKey[record.Code] = record
	if record.IsDefault {
		m.clearDefaultExcept(record.Code)
	}
	return cloneLocale(record), nil
}

func (m *MemoryRepository) SetDefault(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalized := NormalizeCode(code)
	record, ok := m.byKey[normalized]
	if !ok {
		return &NotFoundError{Code: code}
	}
	record.IsDefault = true
	record.UpdatedAt = m.now().UTC()
	m.clearDefaultExcept(normalized)
	return nil
}

func (m *MemoryRepository) clearDefaultExcept(code string) {
	for key, record := range m.byKey {
		if key != code && record.IsDefault {
			record.IsDefault = false
		}
	}
}
