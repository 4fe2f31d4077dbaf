package delivery

import (
	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/locales"
)

// PageContent is a resolved page translation.
type PageContent struct {
	Slug            string         `json:"slug"`
	RequestedLocale string         `json:"requested_locale"`
	Locale          string         `json:"locale"`
	Tier            string         `json:"tier"`
	Blocks          []blocks.Block `json:"blocks"`
}

// Fallback reports whether Locale differs from the locale that was asked for.
func (p *PageContent) Fallback() bool {
	return p != nil && p.Tier != locales.TierExact.String()
}

// SiteSettings is the resolved settings translation.
type SiteSettings struct {
	Locale   string         `json:"locale"`
	SiteName string         `json:"site_name"`
	Tagline  string         `json:"tagline,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Partner is an active partner with its localized description. Description is
// nil when the partner has no translation in any usable locale.
type Partner struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	LogoURL     string  `json:"logo_url,omitempty"`
	WebsiteURL  string  `json:"website_url,omitempty"`
	Description *string `json:"description"`
}

// Locale is the public view of an enabled locale.
type Locale struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	IsDefault  bool   `json:"is_default"`
	IsRTL      bool   `json:"is_rtl"`
}
