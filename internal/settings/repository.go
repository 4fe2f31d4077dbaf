package settings

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists settings records and their translations.
type Repository interface {
	Get(ctx context.Context, key string) (*SiteSettings, error)
	// Ensure returns the record for key, creating it when missing.
	Ensure(ctx context.Context, key string) (*SiteSettings, error)
	// ListTranslations returns translations in insertion order.
	ListTranslations(ctx context.Context, settingsID uuid.UUID) ([]*SiteSettingsTranslation, error)
	// UpsertTranslation inserts or replaces the translation for (settings, locale).
	UpsertTranslation(ctx context.Context, tr *SiteSettingsTranslation) (*SiteSettingsTranslation, error)
}

func NewSettingsRepository(db *bun.DB) repository.Repository[*SiteSettings] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*SiteSettings]{
		NewRecord: func() *SiteSettings { return &SiteSettings{} },
		GetID: func(s *SiteSettings) uuid.UUID {
			return s.ID
		},
		SetID: func(s *SiteSettings, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(s *SiteSettings) string {
			return s.Key
		},
	})
}

func NewSettingsTranslationRepository(db *bun.DB) repository.Repository[*SiteSettingsTranslation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*SiteSettingsTranslation]{
		NewRecord: func() *SiteSettingsTranslation { return &SiteSettingsTranslation{} },
		GetID: func(s *SiteSettingsTranslation) uuid.UUID {
			return s.ID
		},
		SetID: func(s *SiteSettingsTranslation, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(st *SiteSettingsTranslation) string {
			if st == nil {
				return ""
			}
			return st.ID.String()
		},
	})
}
