package blocks_test

import (
	"testing"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

func TestCloneIsDeep(t *testing.T) {
	original := blocks.Block{
		"type":   "gallery",
		"images": []any{map[string]any{"url": "/a.png"}},
		"meta":   map[string]any{"tags": []string{"x"}},
	}
	cloned := original.Clone()

	cloned["images"].([]any)[0].(map[string]any)["url"] = "/b.png"
	cloned["meta"].(map[string]any)["tags"].([]string)[0] = "y"

	if original["images"].([]any)[0].(map[string]any)["url"] != "/a.png" {
		t.Fatalf("expected nested map to be copied")
	}
	if original["meta"].(map[string]any)["tags"].([]string)[0] != "x" {
		t.Fatalf("expected nested slice to be copied")
	}
}

func TestBlockAccessors(t *testing.T) {
	b := blocks.Block{"type": " hero ", "title": 12}
	if b.Type() != "hero" {
		t.Fatalf("expected trimmed type, got %q", b.Type())
	}
	if b.String("title") != "" {
		t.Fatalf("expected non-string field to read as empty")
	}
	if blocks.Block(nil).Clone() != nil {
		t.Fatalf("expected nil clone for nil block")
	}
}
