package blocks

import (
	"strings"
)

const (
	// TypeKey holds the variant discriminant on every block.
	TypeKey = "type"
	// KeyField is an optional author-supplied identity that overrides derived
	// identity for any variant.
	KeyField = "_key"
)

// Block is one entry of a translation's block sequence. Payloads stay untyped
// so unknown variants round-trip without loss.
type Block map[string]any

// Type returns the discriminant, or "" when absent or not a string.
func (b Block) Type() string {
	value, _ := b[TypeKey].(string)
	return strings.TrimSpace(value)
}

// String returns the trimmed string stored at field.
func (b Block) String(field string) string {
	value, _ := b[field].(string)
	return strings.TrimSpace(value)
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	if b == nil {
		return nil
	}
	return Block(CloneMap(b))
}

// CloneAll deep copies a block sequence.
func CloneAll(in []Block) []Block {
	if in == nil {
		return nil
	}
	out := make([]Block, len(in))
	for i, block := range in {
		out[i] = block.Clone()
	}
	return out
}

// CloneMap deep copies nested maps and slices. Scalars are shared.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = CloneValue(value)
	}
	return out
}

func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneMap(typed)
	case Block:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(typed))
		for i, item := range typed {
			out[i] = CloneMap(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}

// FromMaps converts decoded JSON objects into blocks without copying.
func FromMaps(in []map[string]any) []Block {
	out := make([]Block, 0, len(in))
	for _, item := range in {
		out = append(out, Block(item))
	}
	return out
}
