package identity_test

import (
	"testing"

	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/google/uuid"
)

func TestUUIDIsStable(t *testing.T) {
	first := identity.PageUUID("services")
	second := identity.PageUUID("  Services ")
	if first == uuid.Nil {
		t.Fatalf("expected non-nil uuid")
	}
	if first != second {
		t.Fatalf("expected normalized slugs to share an id, got %s and %s", first, second)
	}
}

func TestUUIDNamespacesByKind(t *testing.T) {
	if identity.PageUUID("home") == identity.PartnerUUID("home") {
		t.Fatalf("expected page and partner ids to differ for the same slug")
	}
	pageID := identity.PageUUID("home")
	if identity.PageTranslationUUID(pageID, "en") == identity.PageTranslationUUID(pageID, "fr") {
		t.Fatalf("expected translation ids to differ per locale")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := identity.UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}
