package partners

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Partner is a logo/link entry shown on marketing pages. Descriptions are
// localized through PartnerTranslation.
type Partner struct {
	bun.BaseModel `bun:"table:partners,alias:pa"`

	ID         uuid.UUID `bun:",pk,type:uuid"                                json:"id"`
	Slug       string    `bun:"slug,notnull"                                 json:"slug"`
	Name       string    `bun:"name,notnull"                                 json:"name"`
	LogoURL    string    `bun:"logo_url"                                     json:"logo_url,omitempty"`
	WebsiteURL string    `bun:"website_url"                                  json:"website_url,omitempty"`
	Position   int       `bun:"position,notnull,default:0"                   json:"position"`
	IsActive   bool      `bun:"is_active,notnull"                            json:"is_active"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

type PartnerTranslation struct {
	bun.BaseModel `bun:"table:partner_translations,alias:pat"`

	ID          uuid.UUID `bun:",pk,type:uuid"                                json:"id"`
	PartnerID   uuid.UUID `bun:"partner_id,notnull,type:uuid"                 json:"partner_id"`
	LocaleCode  string    `bun:"locale_code,notnull"                          json:"locale_code"`
	Position    int       `bun:"position,notnull,default:0"                   json:"position"`
	Description string    `bun:"description"                                  json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

var (
	ErrNotFound       = errors.New("partners: not found")
	ErrSlugRequired   = errors.New("partners: slug is required")
	ErrNameRequired   = errors.New("partners: name is required")
	ErrLocaleRequired = errors.New("partners: locale is required")
	ErrPartnerMissing = errors.New("partners: translation requires a partner id")
)

type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("partner %q not found", e.Slug)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// LocaleOf is the locale accessor used with locales.Resolve.
func LocaleOf(tr *PartnerTranslation) string {
	if tr == nil {
		return ""
	}
	return tr.LocaleCode
}

func validatePartner(p *Partner) error {
	if p == nil || NormalizeSlug(p.Slug) == "" {
		return ErrSlugRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

func validateTranslation(tr *PartnerTranslation) error {
	if tr == nil || tr.PartnerID == uuid.Nil {
		return ErrPartnerMissing
	}
	if strings.TrimSpace(tr.LocaleCode) == "" {
		return ErrLocaleRequired
	}
	return nil
}

func clonePartner(p *Partner) *Partner {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func cloneTranslation(tr *PartnerTranslation) *PartnerTranslation {
	if tr == nil {
		return nil
	}
	copied := *tr
	return &copied
}
