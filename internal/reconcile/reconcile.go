package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

// Mode selects how an incoming sequence is applied to an existing one.
type Mode string

const (
	// ModeMerge keeps every existing block in place, deep-merges identity
	// matches and appends unmatched incoming blocks.
	ModeMerge Mode = "merge"
	// ModeReplace returns the incoming sequence in incoming order, carrying
	// over fields the incoming block omits from the existing block holding the
	// same key at the same occurrence.
	ModeReplace Mode = "replace"
)

// ParseMode accepts "merge" and "replace" case-insensitively. Empty input
// selects ModeMerge.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeMerge:
		return ModeMerge, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("reconcile: unknown mode %q", value)
	}
}

// Engine reconciles block sequences using a catalog's identity rules.
type Engine struct {
	catalog *blocks.Catalog
}

func New(catalog *blocks.Catalog) *Engine {
	if catalog == nil {
		catalog = blocks.DefaultCatalog()
	}
	return &Engine{catalog: catalog}
}

// Reconcile runs the default engine.
func Reconcile(existing, incoming []blocks.Block, mode Mode) ([]blocks.Block, error) {
	return New(nil).Reconcile(existing, incoming, mode)
}

// Reconcile returns a new sequence and never mutates its inputs.
func (e *Engine) Reconcile(existing, incoming []blocks.Block, mode Mode) ([]blocks.Block, error) {
	switch mode {
	case ModeMerge, "":
		return e.merge(existing, incoming), nil
	case ModeReplace:
		return e.replace(existing, incoming), nil
	default:
		return nil, fmt.Errorf("reconcile: unknown mode %q", mode)
	}
}

func (e *Engine) merge(existing, incoming []blocks.Block) []blocks.Block {
	result := blocks.CloneAll(existing)
	if result == nil {
		result = make([]blocks.Block, 0, len(incoming))
	}
	index := e.index(result)

	for _, block := range incoming {
		if block == nil {
			continue
		}
		key := e.catalog.IdentityOf(block)
		if pos, ok := index[key]; ok {
			result[pos] = blocks.Block(mergeMaps(result[pos], block))
			continue
		}
		index[key] = len(result)
		result = append(result, blocks.Block(mergeMaps(nil, block)))
	}
	return result
}

func (e *Engine) replace(existing, incoming []blocks.Block) []blocks.Block {
	positions := e.positions(existing)
	seen := make(map[blocks.Key]int, len(incoming))
	result := make([]blocks.Block, 0, len(incoming))
	for _, block := range incoming {
		if block == nil {
			continue
		}
		// The k-th incoming block with a key pairs with the k-th existing one.
		key := e.catalog.IdentityOf(block)
		occurrence := seen[key]
		seen[key] = occurrence + 1

		var base map[string]any
		if matches := positions[key]; occurrence < len(matches) {
			base = existing[matches[occurrence]]
		}
		result = append(result, blocks.Block(mergeMaps(base, block)))
	}
	return result
}

// positions maps identity keys to every position holding them, in order.
func (e *Engine) positions(seq []blocks.Block) map[blocks.Key][]int {
	out := make(map[blocks.Key][]int, len(seq))
	for i, block := range seq {
		key := e.catalog.IdentityOf(block)
		out[key] = append(out[key], i)
	}
	return out
}

// index maps identity keys to the first position holding them.
func (e *Engine) index(seq []blocks.Block) map[blocks.Key]int {
	out := make(map[blocks.Key]int, len(seq))
	for i, block := range seq {
		key := e.catalog.IdentityOf(block)
		if _, ok := out[key]; !ok {
			out[key] = i
		}
	}
	return out
}

// mergeMaps deep-merges incoming over a copy of base. Nested objects recurse,
// arrays and scalars from incoming win, nil incoming values keep the base value
// and are dropped when base has none.
func mergeMaps(base, incoming map[string]any) map[string]any {
	out := blocks.CloneMap(base)
	if out == nil {
		out = make(map[string]any, len(incoming))
	}
	for key, value := range incoming {
		if value == nil {
			continue
		}
		incomingMap, incomingIsMap := asMap(value)
		existingMap, existingIsMap := asMap(out[key])
		switch {
		case incomingIsMap && existingIsMap:
			out[key] = mergeMaps(existingMap, incomingMap)
		case incomingIsMap:
			out[key] = mergeMaps(nil, incomingMap)
		default:
			out[key] = blocks.CloneValue(value)
		}
	}
	return out
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case blocks.Block:
		return typed, true
	default:
		return nil, false
	}
}

// Equal compares two sequences by their canonical JSON encoding, which sorts
// object keys.
func Equal(a, b []blocks.Block) (bool, error) {
	left, err := json.Marshal(normalizeNil(a))
	if err != nil {
		return false, err
	}
	right, err := json.Marshal(normalizeNil(b))
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

func normalizeNil(seq []blocks.Block) []blocks.Block {
	if seq == nil {
		return []blocks.Block{}
	}
	return seq
}

// Result describes one reconciliation for callers that persist the outcome.
type Result struct {
	Blocks  []blocks.Block
	Changed bool
}

// Apply reconciles and reports whether the outcome differs from existing.
func (e *Engine) Apply(existing, incoming []blocks.Block, mode Mode) (Result, error) {
	merged, err := e.Reconcile(existing, incoming, mode)
	if err != nil {
		return Result{}, err
	}
	same, err := Equal(existing, merged)
	if err != nil {
		return Result{}, err
	}
	return Result{Blocks: merged, Changed: !same}, nil
}
