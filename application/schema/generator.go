// Package schema generates JSON schemas for the lasr configuration files.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Option configures Generate.
type Option func(*jsonschema.Reflector)

// WithFieldNameTag names properties after the given struct tag instead of
// json, so a schema matches the keys of a YAML or TOML file.
func WithFieldNameTag(tag string) Option {
	return func(r *jsonschema.Reflector) {
		r.FieldNameTag = tag
	}
}

// Generate creates a JSON schema (Draft 2020-12) from a Go struct. The
// top-level struct is expanded inline.
func Generate(v any, opts ...Option) ([]byte, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	for _, opt := range opts {
		opt(reflector)
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}
