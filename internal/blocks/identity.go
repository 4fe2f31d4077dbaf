package blocks

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Key is the derived identity used to match blocks across reconciliation
// calls. It is never persisted.
type Key string

// IdentityOf derives a block's key with the default catalog.
func IdentityOf(b Block) Key {
	return DefaultCatalog().IdentityOf(b)
}

// IdentityOf builds the key from the discriminant plus, in priority order, the
// author-supplied _key, the first present identifier field, or a bounded
// prefix of the first present title field. Blocks with none of these share
// the discriminant-only key.
func (c *Catalog) IdentityOf(b Block) Key {
	typ := b.Type()
	if explicit := scalarString(b[KeyField]); explicit != "" {
		return Key(typ + "@" + explicit)
	}

	idFields, titleFields, prefix := c.rule(typ)
	for _, field := range idFields {
		if value := scalarString(b[field]); value != "" {
			return Key(typ + "#" + field + "=" + value)
		}
	}
	for _, field := range titleFields {
		if title := normalizeTitle(b.String(field), prefix); title != "" {
			return Key(typ + "~" + title)
		}
	}
	return Key(typ)
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// normalizeTitle lower-cases, collapses whitespace and keeps at most limit runes.
func normalizeTitle(title string, limit int) string {
	fields := strings.FieldsFunc(strings.ToLower(title), unicode.IsSpace)
	if len(fields) == 0 {
		return ""
	}
	runes := []rune(strings.Join(fields, " "))
	if limit > 0 && len(runes) > limit {
		runes = runes[:limit]
	}
	return strings.TrimSpace(string(runes))
}
