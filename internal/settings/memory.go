package settings

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/goliatone/go-pageblocks/internal/locales"
)

type MemoryRepository struct {
	mu           sync.RWMutex
	records      map[string]*SiteSettings
	translations map[uuid.UUID][]*SiteSettingsTranslation
	now          func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:      make(map[string]*SiteSettings),
		translations: make(map[uuid.UUID][]*SiteSettingsTranslation),
		now:          time.Now,
	}
}

func (m *MemoryRepository) Get(_ context.Context, key string) (*SiteSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[strings.TrimSpace(key)]
	if !ok {
		return nil, &NotFoundError{Resource: "settings", Key: key}
	}
	copied := *record
	return &copied, nil
}

func (m *MemoryRepository) Ensure(_ context.Context, key string) (*SiteSettings, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	if !ok {
		now := m.now().UTC()
		record = &SiteSettings{ID: identity.SettingsUUID(key), Key: key, CreatedAt: now, UpdatedAt: now}
		m.records[key] = record
	}
	copied := *record
	return &copied, nil
}

func (m *MemoryRepository) ListTranslations(_ context.Context, settingsID uuid.UUID) ([]*SiteSettingsTranslation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*SiteSettingsTranslation, 0, len(m.translations[settingsID]))
	for _, tr := range m.translations[settingsID] {
		out = append(out, cloneTranslation(tr))
	}
	return out, nil
}

func (m *MemoryRepository) UpsertTranslation(_ context.Context, tr *SiteSettingsTranslation) (*SiteSettingsTranslation, error) {
	if tr == nil || locales.NormalizeCode(tr.LocaleCode) == "" {
		return nil, ErrLocaleRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	record := cloneTranslation(tr)
	record.LocaleCode = locales.NormalizeCode(record.LocaleCode)
	now := m.now().UTC()
	record.UpdatedAt = now
	list := m.translations[record.SettingsID]
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
		record.ID = identity.SettingsTranslationUUID(record.SettingsID, record.LocaleCode)
	}
	record.CreatedAt = now
	record.Position = len(list)
	m.translations[record.SettingsID] = append(list, record)
	return cloneTranslation(record), nil
}
