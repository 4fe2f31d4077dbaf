package locales

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists locales. List returns records in insertion order.
type Repository interface {
	List(ctx context.Context) ([]*Locale, error)
	GetByCode(ctx context.Context, code string) (*Locale, error)
	Upsert(ctx context.Context, locale *Locale) (*Locale, error)
	SetDefault(ctx context.Context, code string) error
}

func NewLocaleRepository(db *bun.DB) repository.Repository[*Locale] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Locale]{
		NewRecord: func() *Locale { return &Locale{} },
		GetID: func(l *Locale) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Locale, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Locale) string {
			return l.Code
		},
	})
}
