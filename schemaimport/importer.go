package schemaimport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tblsschema "github.com/k1LoW/tbls/schema"

	"github.com/shibukawa/cel2sql/schema"
)

// celString, celInt, celDouble, celBool are the element-type names
// schema.FieldSchema.ElementType expects for array columns (§3.2).
const (
	celString = "string"
	celInt    = "int"
	celDouble = "double"
	celBool   = "bool"
)

// Importer orchestrates loading a tbls schema JSON artefact and converting
// it into a schema.Registry.
type Importer struct {
	cfg          *Config
	schema       *tblsschema.Schema
	schemaLoaded bool
}

// NewImporter constructs an Importer from a Config.
func NewImporter(cfg Config) *Importer {
	copyCfg := cfg
	return &Importer{cfg: &copyCfg}
}

// Config returns the resolved configuration backing the importer.
func (i *Importer) Config() *Config {
	if i == nil {
		return nil
	}

	return i.cfg
}

// LoadSchemaJSON loads the tbls JSON artefact into memory ready for conversion.
func (i *Importer) LoadSchemaJSON(ctx context.Context) error {
	if i == nil {
		return ErrImporterNil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if i.cfg == nil {
		return ErrImporterConfigNil
	}

	path := i.cfg.SchemaJSONPath
	if strings.TrimSpace(path) == "" {
		return ErrSchemaJSONPathMissing
	}

	if !filepath.IsAbs(path) {
		base := i.cfg.WorkingDir
		if base == "" {
			base = "."
		}

		path = filepath.Join(base, path)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("schemaimport: open schema JSON %q: %w", path, err)
	}
	defer file.Close()

	loaded, err := decodeSchemaJSON(file)
	if err != nil {
		return fmt.Errorf("schemaimport: decode schema JSON %q: %w", path, err)
	}

	if err := validateSchema(loaded); err != nil {
		return fmt.Errorf("schemaimport: invalid schema JSON %q: %w", path, err)
	}

	i.logf("Loaded schema JSON (%s) tables=%d", loaded.Driver.Name, len(loaded.Tables))

	if err := ctx.Err(); err != nil {
		return err
	}

	i.schema = loaded
	i.schemaLoaded = true

	return nil
}

// Convert transforms the loaded tbls schema directly into a schema.Registry.
// Views are registered alongside tables — both are queryable relations as
// far as the translation kernel is concerned. Each table/view is keyed by
// its unqualified name and, when tbls reports a schema/database namespace,
// again under "schema.table" so either form resolves (§3.2).
func (i *Importer) Convert(ctx context.Context) (*schema.Registry, error) {
	if i == nil {
		return nil, ErrImporterNil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !i.schemaLoaded || i.schema == nil {
		return nil, ErrSchemaNotLoaded
	}

	driverName := normalizeDriverName(i.schema.Driver.Name)

	i.logf("Converting schema for driver=%s tables=%d", driverName, len(i.schema.Tables))

	var built []*schema.Schema

	for _, tbl := range i.schema.Tables {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if tbl == nil {
			continue
		}

		schemaName, tableName := splitSchemaAndName(tbl.Name, i.schema.Driver)

		fields := convertColumns(tbl.Columns, driverName)

		built = append(built, schema.NewSchema(tableName, fields))

		if schemaName != "" {
			built = append(built, schema.NewSchema(schemaName+"."+tableName, fields))
		}
	}

	i.logf("Converted schema JSON -> %d relation(s)", len(built))

	return schema.NewRegistry(built...), nil
}

// hasLoadedSchema reports whether a schema JSON payload has been loaded.
func (i *Importer) hasLoadedSchema() bool {
	if i == nil {
		return false
	}

	return i.schemaLoaded
}

func decodeSchemaJSON(r io.Reader) (*tblsschema.Schema, error) {
	dec := json.NewDecoder(r)

	var s tblsschema.Schema
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

func validateSchema(s *tblsschema.Schema) error {
	if s == nil {
		return ErrSchemaPayloadNil
	}

	if s.Driver == nil {
		return ErrDriverMetadataMissing
	}

	if strings.TrimSpace(s.Driver.Name) == "" {
		return ErrDriverNameEmpty
	}

	if len(s.Tables) == 0 {
		return ErrSchemaTablesEmpty
	}

	return nil
}

func (i *Importer) logf(format string, args ...any) {
	if i == nil || i.cfg == nil {
		return
	}

	i.cfg.logf(format, args...)
}

// convertColumns builds the schema.FieldSchema set for one table's columns.
func convertColumns(cols []*tblsschema.Column, driver string) []schema.FieldSchema {
	fields := make([]schema.FieldSchema, 0, len(cols))

	for _, col := range cols {
		if col == nil {
			continue
		}

		fields = append(fields, columnToField(col, driver))
	}

	return fields
}

// columnToField decides a column's FieldKind from its raw SQL type: array
// suffix, jsonb vs json (IsBinaryJSON only matters for PostgreSQL's `?`
// existence operator), everything else is a plain scalar column. No finer
// type distinction is kept: the translator only ever switches on FieldKind,
// never on a column's exact SQL type.
func columnToField(col *tblsschema.Column, driver string) schema.FieldSchema {
	base := strings.ToLower(strings.TrimSpace(col.Type))
	isArray := strings.HasSuffix(base, "[]")
	base = strings.TrimSuffix(base, "[]")

	if idx := strings.Index(base, "("); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}

	field := schema.FieldSchema{Name: col.Name}

	switch {
	case isArray:
		field.Kind = schema.FieldArray
		field.ElementType = elementTypeName(base, driver)
	case base == "jsonb":
		field.Kind = schema.FieldJSON
		field.IsBinaryJSON = true
	case base == "json":
		field.Kind = schema.FieldJSON
	default:
		field.Kind = schema.FieldScalar
	}

	return field
}

// elementTypeName maps one dialect's base SQL scalar type to the CEL-ish
// name schema.FieldSchema.ElementType expects, for the element type of a
// native array column.
func elementTypeName(base, driver string) string {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return postgresElementType(base)
	case "mysql":
		return mysqlElementType(base)
	case "sqlite", "sqlite3":
		return sqliteElementType(base)
	default:
		return genericElementType(base)
	}
}

func postgresElementType(t string) string {
	switch t {
	case "integer", "int", "int4", "bigint", "int8", "smallint", "int2", "serial", "bigserial", "smallserial":
		return celInt
	case "numeric", "decimal", "real", "float4", "double precision", "float8", "float":
		return celDouble
	case "boolean", "bool":
		return celBool
	default:
		return celString
	}
}

func mysqlElementType(t string) string {
	switch t {
	case "int", "integer", "bigint", "smallint", "tinyint", "mediumint":
		return celInt
	case "decimal", "numeric", "float", "double", "real":
		return celDouble
	case "boolean", "bool":
		return celBool
	default:
		return celString
	}
}

func sqliteElementType(t string) string {
	switch {
	case strings.Contains(t, "int"):
		return celInt
	case strings.Contains(t, "real") || strings.Contains(t, "floa") || strings.Contains(t, "doub"):
		return celDouble
	case strings.Contains(t, "bool"):
		return celBool
	default:
		return celString
	}
}

func genericElementType(t string) string {
	switch {
	case strings.Contains(t, "int"):
		return celInt
	case strings.Contains(t, "bool"):
		return celBool
	case strings.Contains(t, "real") || strings.Contains(t, "floa") || strings.Contains(t, "doub") || strings.Contains(t, "numeric") || strings.Contains(t, "decimal"):
		return celDouble
	default:
		return celString
	}
}

func normalizeDriverName(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "postgres", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(driver)
	}
}

func splitSchemaAndName(fullName string, driver *tblsschema.Driver) (string, string) {
	schemaName := ""
	tableName := fullName

	if idx := strings.Index(fullName, "."); idx >= 0 {
		schemaName = fullName[:idx]
		tableName = fullName[idx+1:]
	} else if driver != nil && driver.Meta != nil && driver.Meta.CurrentSchema != "" {
		schemaName = driver.Meta.CurrentSchema
	}

	return schemaName, tableName
}

