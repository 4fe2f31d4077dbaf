package blocks_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

func TestIdentityOfIgnoresNonIdentityFields(t *testing.T) {
	a := blocks.Block{"type": "serviceDetails", "serviceId": "audit", "title": "Audit", "features": []any{"a"}}
	b := blocks.Block{"type": "serviceDetails", "serviceId": "audit", "title": "Security audit", "features": []any{"b", "c"}}

	if blocks.IdentityOf(a) != blocks.IdentityOf(b) {
		t.Fatalf("expected equal keys, got %q and %q", blocks.IdentityOf(a), blocks.IdentityOf(b))
	}
}

func TestIdentityOfSeparatesIdentifiers(t *testing.T) {
	a := blocks.Block{"type": "serviceDetails", "serviceId": "audit"}
	b := blocks.Block{"type": "serviceDetails", "serviceId": "training"}
	if blocks.IdentityOf(a) == blocks.IdentityOf(b) {
		t.Fatalf("expected distinct keys for different service ids")
	}

	g1 := blocks.Block{"type": "interactiveServices", "groupKey": "cloud", "title": "same"}
	g2 := blocks.Block{"type": "interactiveServices", "groupKey": "edge", "title": "same"}
	if blocks.IdentityOf(g1) == blocks.IdentityOf(g2) {
		t.Fatalf("expected group keys to win over titles")
	}
}

func TestIdentityOfTitlePrefix(t *testing.T) {
	long := strings.Repeat("x", 60)
	a := blocks.Block{"type": "faq", "title": long + " first edit"}
	b := blocks.Block{"type": "faq", "title": long + " second edit"}
	if blocks.IdentityOf(a) != blocks.IdentityOf(b) {
		t.Fatalf("expected titles sharing a 40 rune prefix to match")
	}

	c := blocks.Block{"type": "faq", "heading": "  Frequently   Asked "}
	d := blocks.Block{"type": "faq", "heading": "frequently asked"}
	if blocks.IdentityOf(c) != blocks.IdentityOf(d) {
		t.Fatalf("expected whitespace and case to be normalized, got %q and %q", blocks.IdentityOf(c), blocks.IdentityOf(d))
	}

	e := blocks.Block{"type": "faq", "title": "Pricing"}
	if blocks.IdentityOf(a) == blocks.IdentityOf(e) {
		t.Fatalf("expected different titles to produce different keys")
	}
}

func TestIdentityOfCollapsesToDiscriminant(t *testing.T) {
	a := blocks.Block{"type": "logoGrid", "title": "Clients", "logos": []any{}}
	b := blocks.Block{"type": "logoGrid", "title": "Partners"}
	if got := blocks.IdentityOf(a); got != blocks.Key("logoGrid") || got != blocks.IdentityOf(b) {
		t.Fatalf("expected untitled variant to collapse to discriminant, got %q", got)
	}

	unknown := blocks.Block{"type": "mystery", "payload": map[string]any{"x": 1}}
	if got := blocks.IdentityOf(unknown); got != blocks.Key("mystery") {
		t.Fatalf("expected unknown variant without title to use discriminant, got %q", got)
	}
}

func TestIdentityOfExplicitKey(t *testing.T) {
	a := blocks.Block{"type": "logoGrid", "_key": "clients"}
	b := blocks.Block{"type": "logoGrid", "_key": "partners"}
	if blocks.IdentityOf(a) == blocks.IdentityOf(b) {
		t.Fatalf("expected _key to disambiguate instances of one variant")
	}
	numeric := blocks.Block{"type": "serviceDetails", "serviceId": float64(7)}
	if got := blocks.IdentityOf(numeric); got != blocks.Key("serviceDetails#serviceId=7") {
		t.Fatalf("unexpected numeric identifier key %q", got)
	}
}

func TestCatalogOptions(t *testing.T) {
	catalog := blocks.NewCatalog(blocks.WithTitleFields("name"), blocks.WithTitlePrefix(3))
	catalog.Register(blocks.Variant{Type: "card", IDFields: []string{"cardId"}})

	if got := catalog.IdentityOf(blocks.Block{"type": "card", "name": "Alphabet"}); got != blocks.Key("card~alp") {
		t.Fatalf("unexpected key %q", got)
	}
	if got := catalog.IdentityOf(blocks.Block{"type": "card", "cardId": "c1", "name": "x"}); got != blocks.Key("card#cardId=c1") {
		t.Fatalf("unexpected key %q", got)
	}
	if types := catalog.Types(); len(types) != 1 || types[0] != "card" {
		t.Fatalf("unexpected types %v", types)
	}
}
