package partners

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/goliatone/go-pageblocks/internal/locales"
)

type MemoryRepository struct {
	mu           sync.RWMutex
	bySlug       map[string]*Partner
	translations map[uuid.UUID][]*PartnerTranslation
	now          func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bySlug:       make(map[string]*Partner),
		translations: make(map[uuid.UUID][]*PartnerTranslation),
		now:          time.Now,
	}
}

func (m *MemoryRepository) List(_ context.Context) ([]*Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Partner, 0, len(m.bySlug))
	for _, p := range m.bySlug {
		out = append(out, clonePartner(p))
	}
	slices.SortFunc(out, comparePartners)
	return out, nil
}

func (m *MemoryRepository) GetBySlug(_ context.Context, slug string) (*Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.bySlug[NormalizeSlug(slug)]
	if !ok {
		return nil, &NotFoundError{Slug: slug}
	}
	return clonePartner(p), nil
}

func (m *MemoryRepository) Upsert(_ context.Context, partner *Partner) (*Partner, error) {
	if err := validatePartner(partner); err != nil {
		return nil, err
	}
	record := clonePartner(partner)
	record.Slug = NormalizeSlug(record.Slug)
	now := m.now().UTC()
	record.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.bySlug[record.Slug]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		if record.ID == uuid.Nil {
			record.ID = identity.PartnerUUID(record.Slug)
		}
		record.CreatedAt = now
	}
	m.bySlug[record.Slug] = record
	return clonePartner(record), nil
}

func (m *MemoryRepository) ListTranslations(_ context.Context, partnerIDs ...uuid.UUID) ([]*PartnerTranslation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*PartnerTranslation
	for _, id := range partnerIDs {
		for _, tr := range m.translations[id] {
			out = append(out, cloneTranslation(tr))
		}
	}
	return out, nil
}

func (m *MemoryRepository) UpsertTranslation(_ context.Context, tr *PartnerTranslation) (*PartnerTranslation, error) {
	if err := validateTranslation(tr); err != nil {
		return nil, err
	}
	record := cloneTranslation(tr)
	record.LocaleCode = locales.NormalizeCode(record.LocaleCode)
	now := m.now().UTC()
	record.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.translations[record.PartnerID]
	for i, existing := range list {
		if existing.LocaleCode == record.LocaleCode {
			record.ID = existing.ID
			record.Position = existing.Position
			record.CreatedAt = existing.CreatedAt
			list[i] = record
			return cloneTranslation(record), nil
		}
	}
	if record.ID == uuid.Nil {
		record.ID = identity.PartnerTranslationUUID(record.PartnerID, record.LocaleCode)
	}
	record.CreatedAt = now
	record.Position = len(list)
	m.translations[record.PartnerID] = append(list, record)
	return cloneTranslation(record), nil
}

func comparePartners(a, b *Partner) int {
	return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.Slug, b.Slug))
}
