package pages

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

// Page is the addressable unit; its content lives in per-locale translations.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID           uuid.UUID          `bun:",pk,type:uuid"                                json:"id"`
	Slug         string             `bun:"slug,notnull"                                 json:"slug"`
	CreatedAt    time.Time          `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time          `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
	Translations []*PageTranslation `bun:"-"                                            json:"translations,omitempty"`
}

// PageTranslation holds one locale's ordered block sequence. Array order is
// display order.
type PageTranslation struct {
	bun.BaseModel `bun:"table:page_translations,alias:pt"`

	ID         uuid.UUID      `bun:",pk,type:uuid"                                json:"id"`
	PageID     uuid.UUID      `bun:"page_id,notnull,type:uuid"                    json:"page_id"`
	LocaleCode string         `bun:"locale_code,notnull"                          json:"locale_code"`
	Position   int            `bun:"position,notnull,default:0"                   json:"position"`
	Blocks     []blocks.Block `bun:"blocks,type:jsonb"                            json:"blocks"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

var (
	ErrNotFound          = errors.New("pages: not found")
	ErrSlugRequired      = errors.New("pages: slug is required")
	ErrSlugInvalid       = errors.New("pages: slug is invalid")
	ErrDuplicateSlug     = errors.New("pages: slug already exists")
	ErrLocaleRequired    = errors.New("pages: locale is required")
	ErrTranslationExists = errors.New("pages: translation already exists for locale")
)

// NotFoundError reports a missing page or translation.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err marks a missing page or translation.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// LocaleOf is the locale accessor used with locales.Resolve.
func LocaleOf(tr *PageTranslation) string {
	if tr == nil {
		return ""
	}
	return tr.LocaleCode
}

func clonePage(p *Page) *Page {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Translations = cloneTranslations(p.Translations)
	return &copied
}

func cloneTranslation(tr *PageTranslation) *PageTranslation {
	if tr == nil {
		return nil
	}
	copied := *tr
	copied.Blocks = blocks.CloneAll(tr.Blocks)
	return &copied
}

func cloneTranslations(in []*PageTranslation) []*PageTranslation {
	if in == nil {
		return nil
	}
	out := make([]*PageTranslation, 0, len(in))
	for _, tr := range in {
		out = append(out, cloneTranslation(tr))
	}
	return out
}
