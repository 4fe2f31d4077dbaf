package pages

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

// Repository persists pages and their translations.
type Repository interface {
	Create(ctx context.Context, page *Page) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]*Page, error)
	// Delete removes the page together with its translations.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListTranslations returns translations in insertion order.
	ListTranslations(ctx context.Context, pageID uuid.UUID) ([]*PageTranslation, error)
	GetTranslation(ctx context.Context, pageID uuid.UUID, locale string) (*PageTranslation, error)
	CreateTranslation(ctx context.Context, tr *PageTranslation) (*PageTranslation, error)
	// ReplaceBlocks swaps a translation's block array in one write.
	ReplaceBlocks(ctx context.Context, translationID uuid.UUID, seq []blocks.Block) error
}

func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Slug
		},
	})
}

func NewPageTranslationRepository(db *bun.DB) repository.Repository[*PageTranslation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PageTranslation]{
		NewRecord: func() *PageTranslation { return &PageTranslation{} },
		GetID: func(pt *PageTranslation) uuid.UUID {
			return pt.ID
		},
		SetID: func(pt *PageTranslation, id uuid.UUID) {
			pt.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(pt *PageTranslation) string {
			if pt == nil {
				return ""
			}
			return pt.ID.String()
		},
	})
}
