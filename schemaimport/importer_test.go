package schemaimport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tblsconfig "github.com/k1LoW/tbls/config"

	"github.com/shibukawa/cel2sql/schema"
)

func TestNewConfigDefaults(t *testing.T) {
	opts := Options{
		TblsConfigPath: "./db/.tbls.yml",
		SchemaJSONPath: "./db/schema.json",
		OutputDir:      "./schema",
		Include:        []string{"public.*"},
		Exclude:        []string{"internal.*"},
	}

	cfg := NewConfig(opts)

	if cfg.TblsConfigPath != opts.TblsConfigPath {
		t.Fatalf("expected TblsConfigPath %q, got %q", opts.TblsConfigPath, cfg.TblsConfigPath)
	}

	if cfg.SchemaJSONPath != opts.SchemaJSONPath {
		t.Fatalf("expected SchemaJSONPath %q, got %q", opts.SchemaJSONPath, cfg.SchemaJSONPath)
	}

	if cfg.OutputDir != opts.OutputDir {
		t.Fatalf("expected OutputDir %q, got %q", opts.OutputDir, cfg.OutputDir)
	}

	if !cfg.IncludeViews {
		t.Fatalf("expected IncludeViews default true")
	}

	if !cfg.IncludeIndexes {
		t.Fatalf("expected IncludeIndexes default true")
	}

	if !cfg.SchemaAware {
		t.Fatalf("expected SchemaAware default true")
	}

	if &cfg.Include == &opts.Include {
		t.Fatalf("Include slice should be copied, not aliased")
	}

	if &cfg.Exclude == &opts.Exclude {
		t.Fatalf("Exclude slice should be copied, not aliased")
	}
}

func TestNewImporterInitialState(t *testing.T) {
	cfg := NewConfig(Options{TblsConfigPath: "./.tbls.yml", SchemaJSONPath: "./schema.json", OutputDir: "./schema"})

	importer := NewImporter(cfg)
	if importer == nil {
		t.Fatalf("expected importer instance")
	}

	if importer.Config().TblsConfigPath != cfg.TblsConfigPath {
		t.Fatalf("importer config mismatch")
	}

	if importer.hasLoadedSchema() {
		t.Fatalf("schema should not be loaded initially")
	}
}

func TestLoadSchemaJSONAndConvertSuccess(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	schemaPath := filepath.Join(tmp, "schema.json")

	doc := `{"driver":{"name":"postgres","database":"app","database_version":"16"},"tables":[{"name":"public.users","type":"TABLE","columns":[{"name":"id","type":"int","pk":true},{"name":"email","type":"text","nullable":false},{"name":"tags","type":"text[]"},{"name":"profile","type":"jsonb"}]}]}`
	if err := os.WriteFile(schemaPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := NewConfig(Options{WorkingDir: tmp, SchemaJSONPath: schemaPath})
	importer := NewImporter(cfg)
	importer.cfg.TblsConfig = &tblsconfig.Config{
		DSN: tblsconfig.DSN{URL: "postgres://localhost/app"},
	}

	if err := importer.LoadSchemaJSON(context.Background()); err != nil {
		t.Fatalf("LoadSchemaJSON returned error: %v", err)
	}

	if !importer.hasLoadedSchema() {
		t.Fatalf("expected schema to be marked as loaded")
	}

	if importer.schema == nil || importer.schema.Driver == nil || importer.schema.Driver.Name != "postgres" {
		t.Fatalf("unexpected schema driver: %#v", importer.schema)
	}

	registry, err := importer.Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	users, ok := registry.Table("users")
	if !ok {
		t.Fatalf("expected unqualified users table in registry")
	}

	if _, ok := registry.Table("public.users"); !ok {
		t.Fatalf("expected schema-qualified public.users table in registry")
	}

	idField, ok := users.Field("id")
	if !ok || idField.Kind != schema.FieldScalar {
		t.Fatalf("expected id to be a scalar field, got %+v ok=%v", idField, ok)
	}

	tagsField, ok := users.Field("tags")
	if !ok || tagsField.Kind != schema.FieldArray || tagsField.ElementType != "string" {
		t.Fatalf("expected tags to be a string array field, got %+v ok=%v", tagsField, ok)
	}

	profileField, ok := users.Field("profile")
	if !ok || profileField.Kind != schema.FieldJSON || !profileField.IsBinaryJSON {
		t.Fatalf("expected profile to be a binary JSON field, got %+v ok=%v", profileField, ok)
	}
}

func TestLoadSchemaJSONMissingFile(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(Options{SchemaJSONPath: "./missing.json"})
	importer := NewImporter(cfg)

	if err := importer.LoadSchemaJSON(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadSchemaJSONValidationFailure(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	schemaPath := filepath.Join(tmp, "schema.json")

	doc := `{"tables":[]}`
	if err := os.WriteFile(schemaPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := NewConfig(Options{SchemaJSONPath: schemaPath})
	importer := NewImporter(cfg)

	if err := importer.LoadSchemaJSON(context.Background()); err == nil {
		t.Fatalf("expected validation error for schema without driver and tables")
	}
}

func TestConvertAppliesDriverSpecificElementTypeMapping(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	schemaPath := filepath.Join(tmp, "schema.json")

	doc := `{"driver":{"name":"mysql"},"tables":[{"name":"orders","type":"TABLE","columns":[{"name":"id","type":"BIGINT"},{"name":"scores","type":"json"},{"name":"amounts","type":"decimal(10,2)[]"}]}]}`
	if err := os.WriteFile(schemaPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := NewConfig(Options{SchemaJSONPath: schemaPath})
	importer := NewImporter(cfg)

	if err := importer.LoadSchemaJSON(context.Background()); err != nil {
		t.Fatalf("LoadSchemaJSON returned error: %v", err)
	}

	registry, err := importer.Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	orders, ok := registry.Table("orders")
	if !ok {
		t.Fatalf("expected orders table in registry")
	}

	idField, ok := orders.Field("id")
	if !ok || idField.Kind != schema.FieldScalar {
		t.Fatalf("expected id to be scalar, got %+v ok=%v", idField, ok)
	}

	scoresField, ok := orders.Field("scores")
	if !ok || scoresField.Kind != schema.FieldJSON || scoresField.IsBinaryJSON {
		t.Fatalf("expected scores to be a plain (non-binary) JSON field, got %+v ok=%v", scoresField, ok)
	}

	amountsField, ok := orders.Field("amounts")
	if !ok || amountsField.Kind != schema.FieldArray || amountsField.ElementType != "double" {
		t.Fatalf("expected amounts to be a double array field, got %+v ok=%v", amountsField, ok)
	}
}

func TestConvertRejectsBeforeLoad(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(Options{})
	importer := NewImporter(cfg)

	if _, err := importer.Convert(context.Background()); err == nil {
		t.Fatalf("expected error when Convert is called before LoadSchemaJSON")
	}
}
