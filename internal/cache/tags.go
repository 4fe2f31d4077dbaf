package cache

import (
	"slices"
	"strings"

	"github.com/goliatone/go-pageblocks/internal/locales"
)

// Tags shared by every resource kind.
const (
	TagPagesAll    = "pages:all"
	TagSettingsAll = "settings:all"
	TagPartnersAll = "partners:all"
	TagLocales     = "locales"
)

// PageTag addresses one page translation.
func PageTag(slug, locale string) string {
	return "page:" + strings.TrimSpace(slug) + ":" + locales.NormalizeCode(locale)
}

// PageTags lists every tag a page write must invalidate.
func PageTags(slug, locale string) []string {
	return []string{PageTag(slug, locale), TagPagesAll}
}

func SettingsTag(locale string) string {
	return "settings:" + locales.NormalizeCode(locale)
}

func SettingsTags(locale string) []string {
	return []string{SettingsTag(locale), TagSettingsAll}
}

func PartnersTag(locale string) string {
	return "partners:" + locales.NormalizeCode(locale)
}

func PartnersTags(locale string) []string {
	return []string{PartnersTag(locale), TagPartnersAll}
}

// LocaleChangeTags lists the tags a locale change invalidates. Fallback
// results for every resource depend on the enabled set and the default.
func LocaleChangeTags() []string {
	return []string{TagLocales, TagPagesAll, TagSettingsAll, TagPartnersAll}
}

// Key builds a cache key for (kind, id, locale).
func Key(kind, id, locale string) string {
	parts := []string{kind}
	if id = strings.TrimSpace(id); id != "" {
		parts = append(parts, id)
	}
	if locale = locales.NormalizeCode(locale); locale != "" {
		parts = append(parts, locale)
	}
	return strings.Join(parts, "|")
}

func mergeTags(groups ...[]string) []string {
	var out []string
	for _, group := range groups {
		for _, tag := range group {
			if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(out, tag) {
				out = append(out, tag)
			}
		}
	}
	return out
}
