package blocks

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	ErrTypeRequired     = errors.New("blocks: block type is required")
	ErrSchemaInvalid    = errors.New("blocks: schema invalid")
	ErrSchemaValidation = errors.New("blocks: schema validation failed")
)

func builtinSchema(typ string) []byte {
	data, err := schemaFS.ReadFile("schemas/" + typ + ".json")
	if err != nil {
		return nil
	}
	return data
}

// Issue is a single validation failure located inside a block sequence.
type Issue struct {
	Index    int
	Type     string
	Location string
	Message  string
}

// ValidationError aggregates issues for a whole sequence.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		}
		parts = append(parts, fmt.Sprintf("block[%d] type=%s %s: %s", issue.Index, issue.Type, location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrSchemaValidation }

// Validator checks blocks against their variant schemas. Compiled schemas are
// kept per type.
type Validator struct {
	catalog  *Catalog
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func NewValidator(catalog *Catalog) *Validator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Validator{catalog: catalog, compiled: make(map[string]*jsonschema.Schema)}
}

// Validate checks every block. Blocks without a type are rejected; unknown
// variants and variants without a schema pass.
func (v *Validator) Validate(seq []Block) error {
	var issues []Issue
	for i, block := range seq {
		typ := block.Type()
		if typ == "" {
			issues = append(issues, Issue{Index: i, Location: "#/" + TypeKey, Message: ErrTypeRequired.Error()})
			continue
		}
		schema, err := v.schemaFor(typ)
		if err != nil {
			return err
		}
		if schema == nil {
			continue
		}
		doc, err := toJSONValue(block)
		if err != nil {
			issues = append(issues, Issue{Index: i, Type: typ, Message: err.Error()})
			continue
		}
		if err := schema.Validate(doc); err != nil {
			issues = append(issues, collectIssues(i, typ, err)...)
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func (v *Validator) schemaFor(typ string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if schema, ok := v.compiled[typ]; ok {
		return schema, nil
	}
	variant, ok := v.catalog.Lookup(typ)
	if !ok || len(variant.Schema) == 0 {
		v.compiled[typ] = nil
		return nil, nil
	}
	schema, err := compileSchema(typ, variant.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, typ, err)
	}
	v.compiled[typ] = schema
	return schema, nil
}

func compileSchema(typ string, raw []byte) (*jsonschema.Schema, error) {
	name := typ + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

// toJSONValue normalizes Go values (ints, typed slices) into the shapes the
// schema validator accepts.
func toJSONValue(block Block) (any, error) {
	encoded, err := json.Marshal(block)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(index int, typ string, err error) []Issue {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []Issue{{Index: index, Type: typ, Message: err.Error()}}
	}
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Index:    index,
				Type:     typ,
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return issues
}
