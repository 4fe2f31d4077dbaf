package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key. Keys are namespaced by
// record kind so equal natural keys of different kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

func key(kind string, parts ...string) string {
	normalized := make([]string, 0, len(parts)+2)
	normalized = append(normalized, "pageblocks", kind)
	for _, part := range parts {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(part)))
	}
	return strings.Join(normalized, ":")
}

func LocaleUUID(code string) uuid.UUID {
	return UUID(key("locale", code))
}

func PageUUID(slug string) uuid.UUID {
	return UUID(key("page", slug))
}

// PageTranslationUUID is unique per (page, locale).
func PageTranslationUUID(pageID uuid.UUID, locale string) uuid.UUID {
	return UUID(key("page_translation", pageID.String(), locale))
}

func SettingsUUID(settingsKey string) uuid.UUID {
	return UUID(key("settings", settingsKey))
}

func SettingsTranslationUUID(settingsID uuid.UUID, locale string) uuid.UUID {
	return UUID(key("settings_translation", settingsID.String(), locale))
}

func PartnerUUID(slug string) uuid.UUID {
	return UUID(key("partner", slug))
}

func PartnerTranslationUUID(partnerID uuid.UUID, locale string) uuid.UUID {
	return UUID(key("partner_translation", partnerID.String(), locale))
}
