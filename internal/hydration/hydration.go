package hydration

import (
	"strings"
	"sync"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

// Hydrator normalizes one block after resolution. It receives a private copy
// and may modify it in place.
type Hydrator interface {
	Hydrate(block blocks.Block) blocks.Block
}

// HydratorFunc adapts a function to Hydrator.
type HydratorFunc func(blocks.Block) blocks.Block

func (f HydratorFunc) Hydrate(block blocks.Block) blocks.Block { return f(block) }

// Registry maps block types to hydrators. Types without a hydrator pass
// through untouched.
type Registry struct {
	mu        sync.RWMutex
	hydrators map[string][]Hydrator
}

func NewRegistry() *Registry {
	return &Registry{hydrators: make(map[string][]Hydrator)}
}

// DefaultRegistry normalizes the {url, alt} reference lists carried by gallery
// and logoGrid blocks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("gallery", ReferenceList("images", "url"))
	r.Register("logoGrid", ReferenceList("logos", "url"))
	return r
}

// Register appends a hydrator for typ. Hydrators for one type run in
// registration order.
func (r *Registry) Register(typ string, h Hydrator) {
	if typ == "" || h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hydrators[typ] = append(r.hydrators[typ], h)
}

// Hydrate returns a new sequence. Blocks without hydrators are returned as the
// same map values; hydrated blocks are copies so cached snapshots stay intact.
func (r *Registry) Hydrate(seq []blocks.Block) []blocks.Block {
	if seq == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]blocks.Block, 0, len(seq))
	for _, block := range seq {
		chain := r.hydrators[block.Type()]
		if len(chain) == 0 {
			out = append(out, block)
			continue
		}
		hydrated := block.Clone()
		for _, h := range chain {
			hydrated = h.Hydrate(hydrated)
			if hydrated == nil {
				break
			}
		}
		if hydrated != nil {
			out = append(out, hydrated)
		}
	}
	return out
}

// ReferenceList drops entries of the list at field whose required key is
// missing or blank. Well-formed entries are kept unchanged and in order. A
// field that is absent or not a list is left alone.
func ReferenceList(field, required string) Hydrator {
	return HydratorFunc(func(block blocks.Block) blocks.Block {
		raw, ok := block[field]
		if !ok {
			return block
		}
		switch entries := raw.(type) {
		case []any:
			kept := make([]any, 0, len(entries))
			for _, entry := range entries {
				if hasReference(entry, required) {
					kept = append(kept, entry)
				}
			}
			block[field] = kept
		case []map[string]any:
			kept := make([]map[string]any, 0, len(entries))
			for _, entry := range entries {
				if hasReference(entry, required) {
					kept = append(kept, entry)
				}
			}
			block[field] = kept
		}
		return block
	})
}

func hasReference(entry any, required string) bool {
	var value any
	switch typed := entry.(type) {
	case map[string]any:
		value = typed[required]
	case blocks.Block:
		value = typed[required]
	default:
		return false
	}
	ref, ok := value.(string)
	return ok && strings.TrimSpace(ref) != ""
}
