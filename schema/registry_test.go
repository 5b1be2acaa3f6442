package schema

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSchemaFieldLookup(t *testing.T) {
	s := NewSchema("users", []FieldSchema{
		{Name: "age", Kind: FieldScalar},
		{Name: "metadata", Kind: FieldJSON, IsBinaryJSON: true},
	})

	f, ok := s.Field("age")
	assert.True(t, ok)
	assert.Equal(t, FieldScalar, f.Kind)

	_, ok = s.Field("missing")
	assert.False(t, ok)
}

func TestSchemaFieldLookupOnNilSchemaDegradesGracefully(t *testing.T) {
	var s *Schema

	_, ok := s.Field("age")
	assert.False(t, ok)
}

func TestRegistryTableLookup(t *testing.T) {
	r := NewRegistry(NewSchema("users", nil), NewSchema("orders", nil))

	_, ok := r.Table("users")
	assert.True(t, ok)

	_, ok = r.Table("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, len(r.Tables()))
}

func TestRegistryLookupOnNilRegistryDegradesGracefully(t *testing.T) {
	var r *Registry

	_, ok := r.Table("users")
	assert.False(t, ok)
	assert.Equal(t, 0, len(r.Tables()))
}

func TestParseYAMLBuildsRegistry(t *testing.T) {
	doc := []byte(`
tables:
  - name: users
    fields:
      - name: age
        kind: scalar
      - name: metadata
        kind: json
        binary_json: true
      - name: tags
        kind: array
        element_type: string
`)

	r, err := ParseYAML(doc)
	assert.NoError(t, err)

	s, ok := r.Table("users")
	assert.True(t, ok)

	age, ok := s.Field("age")
	assert.True(t, ok)
	assert.Equal(t, FieldScalar, age.Kind)

	metadata, ok := s.Field("metadata")
	assert.True(t, ok)
	assert.Equal(t, FieldJSON, metadata.Kind)
	assert.True(t, metadata.IsBinaryJSON)

	tags, ok := s.Field("tags")
	assert.True(t, ok)
	assert.Equal(t, FieldArray, tags.Kind)
	assert.Equal(t, "string", tags.ElementType)
}

func TestParseYAMLRejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte(`
tables:
  - name: users
    bogus_key: true
`))
	assert.Error(t, err)
}

func TestMarshalYAMLRoundTrips(t *testing.T) {
	r := NewRegistry(NewSchema("users", []FieldSchema{
		{Name: "age", Kind: FieldScalar},
		{Name: "tags", Kind: FieldArray, ElementType: "string"},
	}))

	data, err := MarshalYAML(r)
	assert.NoError(t, err)

	roundtripped, err := ParseYAML(data)
	assert.NoError(t, err)

	s, ok := roundtripped.Table("users")
	assert.True(t, ok)

	tags, ok := s.Field("tags")
	assert.True(t, ok)
	assert.Equal(t, FieldArray, tags.Kind)
	assert.Equal(t, "string", tags.ElementType)
}
