package schema

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// yamlDocument is the on-disk shape of a hand-authored schema document, the
// second of the two loader mechanics named in §3.2.
type yamlDocument struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name   string      `yaml:"name"`
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"` // scalar | json | array
	IsBinaryJSON bool   `yaml:"binary_json"`
	ElementType  string `yaml:"element_type"`
}

// LoadYAML parses a hand-authored schema document into a Registry.
func LoadYAML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %q: %w", path, err)
	}

	return ParseYAML(data)
}

// ParseYAML parses schema document bytes into a Registry.
func ParseYAML(data []byte) (*Registry, error) {
	var doc yamlDocument
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}

	schemas := make([]*Schema, 0, len(doc.Tables))

	for _, t := range doc.Tables {
		fields := make([]FieldSchema, 0, len(t.Fields))

		for _, f := range t.Fields {
			field := FieldSchema{
				Name:         f.Name,
				IsBinaryJSON: f.IsBinaryJSON,
				ElementType:  f.ElementType,
			}

			switch f.Kind {
			case "json":
				field.Kind = FieldJSON
			case "array":
				field.Kind = FieldArray
			default:
				field.Kind = FieldScalar
			}

			fields = append(fields, field)
		}

		schemas = append(schemas, NewSchema(t.Name, fields))
	}

	return NewRegistry(schemas...), nil
}

// MarshalYAML renders r into the same hand-authored document shape ParseYAML
// reads, so a Registry built by schemaimport from a tbls artefact can be
// written out as a starting point for manual editing (§3.2's "two loader
// mechanics" convergence, run in reverse for the CLI's import-schema
// command).
func MarshalYAML(r *Registry) ([]byte, error) {
	doc := yamlDocument{Tables: make([]yamlTable, 0, len(r.Tables()))}

	for _, s := range r.Tables() {
		t := yamlTable{Name: s.Table, Fields: make([]yamlField, 0, len(s.Fields))}

		for _, f := range s.Fields {
			t.Fields = append(t.Fields, yamlField{
				Name:         f.Name,
				Kind:         fieldKindName(f.Kind),
				IsBinaryJSON: f.IsBinaryJSON,
				ElementType:  f.ElementType,
			})
		}

		doc.Tables = append(doc.Tables, t)
	}

	return yaml.Marshal(doc)
}

func fieldKindName(k FieldKind) string {
	switch k {
	case FieldJSON:
		return "json"
	case FieldArray:
		return "array"
	default:
		return "scalar"
	}
}
