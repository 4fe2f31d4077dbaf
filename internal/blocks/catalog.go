package blocks

import (
	"slices"
	"sort"
	"sync"
)

// DefaultTitlePrefix bounds the title prefix used as a last-resort identity.
const DefaultTitlePrefix = 40

// Variant describes one block type: the fields that identify an instance and
// an optional JSON schema for strict validation.
type Variant struct {
	Type string
	// IDFields are explicit identifiers, tried in order.
	IDFields []string
	// TitleFields feed the bounded title prefix when no identifier is present.
	// A nil slice selects the catalog defaults; an empty slice disables titles.
	TitleFields []string
	// Schema is a JSON schema document. Nil skips validation.
	Schema []byte
}

// Catalog is the set of known variants. Types outside the catalog are still
// valid blocks and use the default identity rule.
type Catalog struct {
	mu          sync.RWMutex
	variants    map[string]Variant
	titleFields []string
	prefixLen   int
}

// CatalogOption configures a catalog.
type CatalogOption func(*Catalog)

func WithTitleFields(fields ...string) CatalogOption {
	return func(c *Catalog) {
		c.titleFields = slices.Clone(fields)
	}
}

func WithTitlePrefix(runes int) CatalogOption {
	return func(c *Catalog) {
		if runes > 0 {
			c.prefixLen = runes
		}
	}
}

func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		variants:    make(map[string]Variant),
		titleFields: []string{"title", "heading"},
		prefixLen:   DefaultTitlePrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Register adds or replaces a variant.
func (c *Catalog) Register(v Variant) {
	if v.Type == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[v.Type] = v
}

// Lookup returns the variant registered for typ.
func (c *Catalog) Lookup(typ string) (Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variants[typ]
	return v, ok
}

// Types lists registered variant names in sorted order.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.variants))
	for typ := range c.variants {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) rule(typ string) (idFields, titleFields []string, prefix int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	titleFields = c.titleFields
	if v, ok := c.variants[typ]; ok {
		idFields = v.IDFields
		if v.TitleFields != nil {
			titleFields = v.TitleFields
		}
	}
	return idFields, titleFields, c.prefixLen
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the marketing-page variant set. The returned catalog
// is shared; callers needing changes should build their own.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c := NewCatalog()
		for _, v := range builtinVariants() {
			c.Register(v)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func builtinVariants() []Variant {
	untitled := []string{}
	variants := []Variant{
		{Type: "hero"},
		{Type: "about"},
		{Type: "services"},
		{Type: "insights"},
		{Type: "insightsList", IDFields: []string{"category"}},
		{Type: "testimonials"},
		{Type: "logoGrid", TitleFields: untitled},
		{Type: "contact"},
		{Type: "intro"},
		{Type: "values"},
		{Type: "storyline"},
		{Type: "process"},
		{Type: "serviceDetails", IDFields: []string{"serviceId"}},
		{Type: "cta", TitleFields: []string{"title", "heading", "label"}},
		{Type: "faq"},
		{Type: "gallery", IDFields: []string{"galleryId"}},
		{Type: "interactiveServices", IDFields: []string{"groupKey"}},
	}
	for i := range variants {
		variants[i].Schema = builtinSchema(variants[i].Type)
	}
	return variants
}
