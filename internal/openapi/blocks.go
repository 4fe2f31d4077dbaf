package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-pageblocks/internal/blocks"
)

const (
	blockUnionName    = "Block"
	blockSchemaPrefix = "block."
)

// BlockSchemas describes every catalog variant as a component schema and adds
// a Block union discriminated by the type field. Variants without a schema get
// an open object that only pins the type.
func BlockSchemas(catalog *blocks.Catalog, title, version string) (*Document, error) {
	if catalog == nil {
		catalog = blocks.DefaultCatalog()
	}
	doc := NewDocument(title, version)

	types := catalog.Types()
	refs := make([]any, 0, len(types))
	mapping := make(map[string]any, len(types))
	identity := make(map[string]any, len(types))
	for _, typ := range types {
		variant, _ := catalog.Lookup(typ)
		schema, err := variantSchema(variant)
		if err != nil {
			return nil, err
		}
		name := blockSchemaPrefix + typ
		ref := "#/components/schemas/" + name
		doc.AddSchema(name, schema)
		refs = append(refs, map[string]any{"$ref": ref})
		mapping[typ] = ref
		if len(variant.IDFields) > 0 {
			identity[typ] = append([]string(nil), variant.IDFields...)
		}
	}

	doc.AddSchema(blockUnionName, map[string]any{
		"oneOf": refs,
		"discriminator": map[string]any{
			"propertyName": "type",
			"mapping":      mapping,
		},
	})
	if len(identity) > 0 {
		doc.SetExtension("x-block-identity", identity)
	}
	return doc, nil
}

func variantSchema(variant blocks.Variant) (map[string]any, error) {
	if len(variant.Schema) == 0 {
		return map[string]any{
			"type":     "object",
			"required": []any{"type"},
			"properties": map[string]any{
				"type": map[string]any{"type": "string", "enum": []any{variant.Type}},
			},
			"additionalProperties": true,
		}, nil
	}
	var schema map[string]any
	if err := json.Unmarshal(variant.Schema, &schema); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", blocks.ErrSchemaInvalid, variant.Type, err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema, nil
}
