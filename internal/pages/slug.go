package pages

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
)

// NormalizeSlug applies the default slug rules. Writes and reads both go
// through it so "About Us" and "about-us" address the same page.
func NormalizeSlug(value string) (string, error) {
	normalized, err := slug.Normalize(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSlugInvalid, err)
	}
	if normalized == "" || !slug.IsValid(normalized) {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, value)
	}
	return normalized, nil
}
