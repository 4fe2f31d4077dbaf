package openapi

import (
	"encoding/json"
	"maps"
)

const specVersion = "3.1.0"

// Document is the subset of an OpenAPI document used to publish block
// schemas to editors and front-end tooling. Only components are populated.
type Document struct {
	OpenAPI    string
	Info       Info
	Schemas    map[string]any
	Extensions map[string]any
}

// Info captures OpenAPI metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

func NewDocument(title, version string) *Document {
	return &Document{
		OpenAPI:    specVersion,
		Info:       Info{Title: title, Version: version},
		Schemas:    map[string]any{},
		Extensions: map[string]any{},
	}
}

// AddSchema registers a component schema, replacing any schema with the same name.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.Schemas == nil {
		d.Schemas = map[string]any{}
	}
	d.Schemas[name] = schema
}

// SetExtension sets a vendor extension. Keys are expected to start with "x-".
func (d *Document) SetExtension(key string, value any) {
	if d == nil || key == "" {
		return
	}
	if d.Extensions == nil {
		d.Extensions = map[string]any{}
	}
	d.Extensions[key] = value
}

// AsMap flattens the document, extensions included.
func (d *Document) AsMap() map[string]any {
	if d == nil {
		return nil
	}
	out := map[string]any{
		"openapi": d.OpenAPI,
		"info": map[string]any{
			"title":   d.Info.Title,
			"version": d.Info.Version,
		},
		"paths":      map[string]any{},
		"components": map[string]any{"schemas": maps.Clone(d.Schemas)},
	}
	maps.Copy(out, d.Extensions)
	return out
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.AsMap())
}
