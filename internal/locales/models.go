package locales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale is a language the site can be served in.
type Locale struct {
	bun.BaseModel `bun:"table:locales,alias:l"`

	ID         uuid.UUID `bun:",pk,type:uuid"                          json:"id"`
	Code       string    `bun:"code,notnull"                           json:"code"`
	Name       string    `bun:"name,notnull"                           json:"name"`
	NativeName string    `bun:"native_name"                            json:"native_name,omitempty"`
	IsDefault  bool      `bun:"is_default,notnull,default:false"       json:"is_default"`
	IsEnabled  bool      `bun:"is_enabled,notnull"                     json:"is_enabled"`
	IsRTL      bool      `bun:"is_rtl,notnull,default:false"           json:"is_rtl"`
	Position   int       `bun:"position,notnull,default:0"             json:"position"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

var (
	ErrNotFound     = errors.New("locales: not found")
	ErrCodeRequired = errors.New("locales: code is required")
	ErrNameRequired = errors.New("locales: name is required")
	// ErrDefaultDisabled is returned when a disabled locale would become the default.
	ErrDefaultDisabled = errors.New("locales: default locale must be enabled")
)

// NotFoundError reports a missing locale by code.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("locale %q not found", e.Code)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NormalizeCode lower-cases and trims a locale code. Every lookup and every
// stored record goes through it.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func cloneLocale(l *Locale) *Locale {
	if l == nil {
		return nil
	}
	copied := *l
	return &copied
}
