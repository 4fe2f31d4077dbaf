package seeding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
)

// Manifest is one seed file: a front matter header naming the target page
// translation and the blocks to reconcile into it.
type Manifest struct {
	Path     string
	Page     string
	Locale   string
	Mode     reconcile.Mode
	Blocks   []blocks.Block
	Checksum []byte
}

// Request converts the manifest into an ApplyBlocksRequest.
func (m Manifest) Request() ApplyBlocksRequest {
	return ApplyBlocksRequest{
		Slug:   m.Page,
		Locale: m.Locale,
		Mode:   m.Mode,
		Blocks: blocks.CloneAll(m.Blocks),
	}
}

type manifestEnvelope struct {
	Page   string `yaml:"page" json:"page" toml:"page"`
	Locale string `yaml:"locale" json:"locale" toml:"locale"`
	Mode   string `yaml:"mode" json:"mode" toml:"mode"`
	Blocks []any  `yaml:"blocks" json:"blocks" toml:"blocks"`
}

// ParseManifest decodes the front matter of source. The body after the
// header is ignored.
func ParseManifest(name string, source []byte) (*Manifest, error) {
	var env manifestEnvelope
	if _, err := frontmatter.Parse(bytes.NewReader(source), &env); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", name, err)
	}
	mode, err := reconcile.ParseMode(env.Mode)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}

	seq := make([]blocks.Block, 0, len(env.Blocks))
	for i, raw := range env.Blocks {
		entry, ok := normalizeYAML(raw).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("manifest %s: block %d is not a mapping", name, i)
		}
		seq = append(seq, blocks.Block(entry))
	}

	sum := sha256.Sum256(source)
	return &Manifest{
		Path:     name,
		Page:     strings.TrimSpace(env.Page),
		Locale:   strings.TrimSpace(env.Locale),
		Mode:     mode,
		Blocks:   seq,
		Checksum: sum[:],
	}, nil
}

// LoadManifests parses every file under dir matching pattern (default "*.md"),
// returned in path order.
func LoadManifests(ctx context.Context, fsys fs.FS, dir, pattern string) ([]*Manifest, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	if dir = path.Clean(strings.TrimSpace(dir)); dir == "" {
		dir = "."
	}

	var paths []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		matched, err := path.Match(pattern, path.Base(p))
		if err != nil {
			return err
		}
		if matched {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk manifests %s: %w", dir, err)
	}
	sort.Strings(paths)

	out := make([]*Manifest, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", p, err)
		}
		manifest, err := ParseManifest(p, data)
		if err != nil {
			return nil, err
		}
		out = append(out, manifest)
	}
	return out, nil
}

// normalizeYAML turns map[any]any nodes produced by the YAML decoder into
// map[string]any so blocks can be JSON encoded.
func normalizeYAML(value any) any {
	switch typed := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = normalizeYAML(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = normalizeYAML(v)
		}
		return out
	default:
		return value
	}
}
