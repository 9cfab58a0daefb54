// Package registration holds the registration types and the static schema
// registry used to shape interpreted voice memos.
package registration

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed schemas.yaml
var embedded []byte

type rawRegistry struct {
	Schemas      []Schema `yaml:"schemas"`
	Unstructured []Type   `yaml:"unstructured"`
}

var registry = mustLoad(embedded)

func mustLoad(data []byte) map[Type]*Schema {
	reg, err := load(data)
	if err != nil {
		panic(err)
	}
	return reg
}

func load(data []byte) (map[Type]*Schema, error) {
	var raw rawRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schemas: %w", err)
	}

	reg := make(map[Type]*Schema, len(raw.Schemas)+len(raw.Unstructured))
	for i := range raw.Schemas {
		s := raw.Schemas[i]
		if _, err := Parse(string(s.Type)); err != nil {
			return nil, err
		}
		if _, dup := reg[s.Type]; dup {
			return nil, fmt.Errorf("duplicate schema for %q", s.Type)
		}
		seen := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			if seen[f.Name] {
				return nil, fmt.Errorf("schema %q: duplicate field %q", s.Type, f.Name)
			}
			seen[f.Name] = true
			switch f.Type {
			case FieldText, FieldNumber, FieldBoolean:
			case FieldSelect:
				if len(f.Options) == 0 {
					return nil, fmt.Errorf("schema %q: select field %q has no options", s.Type, f.Name)
				}
			default:
				return nil, fmt.Errorf("schema %q: field %q has unknown type %q", s.Type, f.Name, f.Type)
			}
		}
		reg[s.Type] = &s
	}
	for _, t := range raw.Unstructured {
		if _, err := Parse(string(t)); err != nil {
			return nil, err
		}
		reg[t] = nil
	}
	return reg, nil
}

// SchemaFor returns the schema for a registration type, or nil when the type
// has no schema and is captured as free text. The returned schema is shared
// and must not be modified.
func SchemaFor(t Type) *Schema {
	return registry[t]
}

// Schemas returns every defined schema in AllTypes order.
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(registry))
	for _, t := range AllTypes {
		if s := registry[t]; s != nil {
			out = append(out, s)
		}
	}
	return out
}
