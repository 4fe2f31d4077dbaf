package settings

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultKey addresses the site-wide settings record.
const DefaultKey = "site"

// SiteSettings anchors the per-locale settings translations.
type SiteSettings struct {
	bun.BaseModel `bun:"table:site_settings,alias:ss"`

	ID        uuid.UUID `bun:",pk,type:uuid"                                json:"id"`
	Key       string    `bun:"key,notnull"                                  json:"key"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// SiteSettingsTranslation carries the localized settings fields.
type SiteSettingsTranslation struct {
	bun.BaseModel `bun:"table:site_settings_translations,alias:sst"`

	ID         uuid.UUID      `bun:",pk,type:uuid"                                json:"id"`
	SettingsID uuid.UUID      `bun:"settings_id,notnull,type:uuid"                json:"settings_id"`
	LocaleCode string         `bun:"locale_code,notnull"                          json:"locale_code"`
	Position   int            `bun:"position,notnull,default:0"                   json:"position"`
	SiteName   string         `bun:"site_name"                                    json:"site_name"`
	Tagline    string         `bun:"tagline"                                      json:"tagline,omitempty"`
	Fields     map[string]any `bun:"fields,type:jsonb"                            json:"fields,omitempty"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

var (
	ErrNotFound       = errors.New("settings: not found")
	ErrKeyRequired    = errors.New("settings: key is required")
	ErrLocaleRequired = errors.New("settings: locale is required")
)

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// LocaleOf is the locale accessor used with locales.Resolve.
func LocaleOf(tr *SiteSettingsTranslation) string {
	if tr == nil {
		return ""
	}
	return tr.LocaleCode
}

func cloneTranslation(tr *SiteSettingsTranslation) *SiteSettingsTranslation {
	if tr == nil {
		return nil
	}
	copied := *tr
	copied.Fields = maps.Clone(tr.Fields)
	return &copied
}
