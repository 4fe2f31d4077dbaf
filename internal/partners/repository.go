package partners

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	// List returns every partner ordered by position, then slug.
	List(ctx context.Context) ([]*Partner, error)
	GetBySlug(ctx context.Context, slug string) (*Partner, error)
	// Upsert creates or updates the partner addressed by slug.
	Upsert(ctx context.Context, partner *Partner) (*Partner, error)
	// ListTranslations returns translations for the given partners, grouped by
	// partner and in insertion order within each group.
	ListTranslations(ctx context.Context, partnerIDs ...uuid.UUID) ([]*PartnerTranslation, error)
	UpsertTranslation(ctx context.Context, tr *PartnerTranslation) (*PartnerTranslation, error)
}

func NewPartnerRepository(db *bun.DB) repository.Repository[*Partner] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Partner]{
		NewRecord: func() *Partner { return &Partner{} },
		GetID: func(p *Partner) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Partner, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Partner) string {
			return p.Slug
		},
	})
}

func NewPartnerTranslationRepository(db *bun.DB) repository.Repository[*PartnerTranslation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PartnerTranslation]{
		NewRecord: func() *PartnerTranslation { return &PartnerTranslation{} },
		GetID: func(p *PartnerTranslation) uuid.UUID {
			return p.ID
		},
		SetID: func(p *PartnerTranslation, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(pt *PartnerTranslation) string {
			if pt == nil {
				return ""
			}
			return pt.ID.String()
		},
	})
}
