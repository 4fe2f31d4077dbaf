package pages

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/locales"
)

// MemoryRepository is an in-memory page store for tests and demos.
type MemoryRepository struct {
	mu           sync.RWMutex
	pages        map[uuid.UUID]*Page
	order        []uuid.UUID
	slugIndex    map[string]uuid.UUID
	translations map[uuid.UUID][]*PageTranslation
	now          func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		pages:        make(map[uuid.UUID]*Page),
		slugIndex:    make(map[string]uuid.UUID),
		translations: make(map[uuid.UUID][]*PageTranslation),
		now:          time.Now,
	}
}

func (m *MemoryRepository) Create(_ context.Context, page *Page) (*Page, error) {
	if page == nil || strings.TrimSpace(page.Slug) == "" {
		return nil, ErrSlugRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.slugIndex[page.Slug]; exists {
		return nil, ErrDuplicateSlug
	}
	record := clonePage(page)
	record.Translations = nil
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := m.now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	m.pages[record.ID] = record
	m.order = append(m.order, record.ID)
	m.slugIndex[record.Slug] = record.ID
	return clonePage(record), nil
}

func (m *MemoryRepository) GetBySlug(_ context.Context, slug string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.slugIndex[slug]
	if !ok {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	return clonePage(m.pages[id]), nil
}

func (m *MemoryRepository) List(_ context.Context) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Page, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clonePage(m.pages[id]))
	}
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.pages[id]
	if !ok {
		return &NotFoundError{Resource: "page", Key: id.String()}
	}
	delete(m.pages, id)
	delete(m.slugIndex, record.Slug)
	delete(m.translations, id)
	for i, candidate := range m.order {
		if candidate == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository) ListTranslations(_ context.Context, pageID uuid.UUID) ([]*PageTranslation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.pages[pageID]; !ok {
		return nil, &NotFoundError{Resource: "page", Key: pageID.String()}
	}
	out := cloneTranslations(m.translations[pageID])
	if out == nil {
		out = []*PageTranslation{}
	}
	return out, nil
}

func (m *MemoryRepository) GetTranslation(_ context.Context, pageID uuid.UUID, locale string) (*PageTranslation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code := locales.NormalizeCode(locale)
	for _, tr := range m.translations[pageID] {
		if tr.LocaleCode == code {
			return cloneTranslation(tr), nil
		}
	}
	return nil, &NotFoundError{Resource: "page translation", Key: pageID.String() + ":" + code}
}

func (m *MemoryRepository) CreateTranslation(_ context.Context, tr *PageTranslation) (*PageTranslation, error) {
	if tr == nil || locales.NormalizeCode(tr.LocaleCode) == "" {
		return nil, ErrLocaleRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[tr.PageID]; !ok {
		return nil, &NotFoundError{Resource: "page", Key: tr.PageID.String()}
	}
	record := cloneTranslation(tr)
	record.LocaleCode = locales.NormalizeCode(record.LocaleCode)
	for _, existing := range m.translations[tr.PageID] {
		if existing.LocaleCode == record.LocaleCode {
			return nil, ErrTranslationExists
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Blocks == nil {
		record.Blocks = []blocks.Block{}
	}
	now := m.now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	record.Position = len(m.translations[tr.PageID])
	m.translations[tr.PageID] = append(m.translations[tr.PageID], record)
	return cloneTranslation(record), nil
}

func (m *MemoryRepository) ReplaceBlocks(_ context.Context, translationID uuid.UUID, seq []blocks.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, list := range m.translations {
		for i, tr := range list {
			if tr.ID != translationID {
				continue
			}
			updated := cloneTranslation(tr)
			updated.Blocks = blocks.CloneAll(seq)
			if updated.Blocks == nil {
				updated.Blocks = []blocks.Block{}
			}
			updated.UpdatedAt = m.now().UTC()
			list[i] = updated
			return nil
		}
	}
	return &NotFoundError{Resource: "page translation", Key: translationID.String()}
}
