package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/cel2sql/dialect"
)

func writeSchemaFile(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")

	contents := `
tables:
  - name: users
    fields:
      - name: age
        kind: scalar
`

	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadConfigAndRegistryDefaults(t *testing.T) {
	config, registry, err := loadConfigAndRegistry(filepath.Join(t.TempDir(), "missing.yaml"), "", "", "", false)
	assert.NoError(t, err)
	assert.Equal(t, string(dialect.PostgreSQL), config.Dialect)
	assert.Zero(t, registry)
}

func TestLoadConfigAndRegistryWithOverridesAndSchema(t *testing.T) {
	schemaPath := writeSchemaFile(t)

	config, registry, err := loadConfigAndRegistry(filepath.Join(t.TempDir(), "missing.yaml"), "mysql", "parameterized", schemaPath, true)
	assert.NoError(t, err)
	assert.Equal(t, "mysql", config.Dialect)
	assert.Equal(t, 1, len(registry.Tables()))
}

func TestLoadConfigAndRegistryRejectsUnknownDialect(t *testing.T) {
	_, _, err := loadConfigAndRegistry(filepath.Join(t.TempDir(), "missing.yaml"), "oracle", "", "", false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestTranslateCmdRun(t *testing.T) {
	schemaPath := writeSchemaFile(t)

	cmd := &TranslateCmd{
		Expression: `users.age > 18`,
		Schema:     schemaPath,
	}

	ctx := &Context{Config: filepath.Join(t.TempDir(), "missing.yaml")}

	assert.NoError(t, cmd.Run(ctx))
}

func TestTranslateCmdRunReportsSyntaxError(t *testing.T) {
	cmd := &TranslateCmd{Expression: `users.age >`}
	ctx := &Context{Config: filepath.Join(t.TempDir(), "missing.yaml")}

	err := cmd.Run(ctx)
	assert.Error(t, err)
}

func TestAnalyzeCmdRun(t *testing.T) {
	schemaPath := writeSchemaFile(t)

	cmd := &AnalyzeCmd{
		Expression: `users.age > 18`,
		Schema:     schemaPath,
	}

	ctx := &Context{Config: filepath.Join(t.TempDir(), "missing.yaml")}

	assert.NoError(t, cmd.Run(ctx))
}

func TestImportSchemaCmdRejectsUnsupportedSource(t *testing.T) {
	cmd := &ImportSchemaCmd{From: "mysql-native", In: "in.json", Out: "out.yaml"}

	err := cmd.Run(&Context{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mysql-native")
}
