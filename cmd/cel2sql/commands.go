package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/shibukawa/cel2sql"
	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/schema"
	"github.com/shibukawa/cel2sql/schemaimport"
)

// ErrUnsupportedImportSource indicates --from named something other than
// "tbls", the only source format schemaimport currently knows how to read.
var ErrUnsupportedImportSource = errors.New("cel2sql: unsupported import source")

// translateOutput is the JSON shape TranslateCmd prints.
type translateOutput struct {
	SQL             string                 `json:"sql,omitempty"`
	Parameters      []any                  `json:"parameters,omitempty"`
	Recommendations []recommendationOutput `json:"recommendations,omitempty"`
}

type recommendationOutput struct {
	Table      string `json:"table"`
	Column     string `json:"column"`
	IndexType  string `json:"index_type"`
	Expression string `json:"expression"`
	Reason     string `json:"reason"`
}

// TranslateCmd translates one CEL expression into SQL and prints the
// resulting Artifact as JSON.
type TranslateCmd struct {
	Expression string `arg:"" help:"CEL expression to translate"`

	Dialect string `help:"SQL dialect: postgresql, mysql, sqlite, duckdb, bigquery" short:"d"`
	Mode    string `help:"Literal rendering mode: inline or parameterized" short:"m"`
	Schema  string `help:"Path to a hand-authored YAML schema document" short:"s"`
	Advisor bool   `help:"Also report index recommendations alongside the translated SQL"`
}

// Run executes the translate command.
func (cmd *TranslateCmd) Run(ctx *Context) error {
	config, registry, err := loadConfigAndRegistry(ctx.Config, cmd.Dialect, cmd.Mode, cmd.Schema, ctx.Verbose)
	if err != nil {
		return err
	}

	root, err := cel2sql.Parse(cmd.Expression)
	if err != nil {
		return reportDiagnostic(err, ctx.Verbose)
	}

	artifact, err := cel2sql.Translate(root, registry, config, cmd.Advisor)
	if err != nil {
		return reportDiagnostic(err, ctx.Verbose)
	}

	return printJSON(artifactOutput(artifact))
}

// AnalyzeCmd runs the Index Advisor over a CEL expression and prints only
// its recommendations.
type AnalyzeCmd struct {
	Expression string `arg:"" help:"CEL expression to analyze"`

	Dialect string `help:"SQL dialect: postgresql, mysql, sqlite, duckdb, bigquery" short:"d"`
	Schema  string `help:"Path to a hand-authored YAML schema document" short:"s"`
}

// Run executes the analyze command.
func (cmd *AnalyzeCmd) Run(ctx *Context) error {
	config, registry, err := loadConfigAndRegistry(ctx.Config, cmd.Dialect, "", cmd.Schema, ctx.Verbose)
	if err != nil {
		return err
	}

	root, err := cel2sql.Parse(cmd.Expression)
	if err != nil {
		return reportDiagnostic(err, ctx.Verbose)
	}

	artifact, err := cel2sql.Translate(root, registry, config, true)
	if err != nil {
		return reportDiagnostic(err, ctx.Verbose)
	}

	recs := make([]recommendationOutput, 0, len(artifact.Recommendations))
	for _, r := range artifact.Recommendations {
		recs = append(recs, recommendationOutput{
			Table:      r.Table,
			Column:     r.Column,
			IndexType:  r.IndexType.String(),
			Expression: r.Expression,
			Reason:     r.Reason,
		})
	}

	return printJSON(struct {
		Recommendations []recommendationOutput `json:"recommendations"`
	}{recs})
}

// ImportSchemaCmd converts a k1LoW/tbls JSON schema artefact into the
// Schema Registry's hand-authored YAML document format.
type ImportSchemaCmd struct {
	From string `help:"Source schema format" default:"tbls"`
	In   string `help:"Path to the tbls JSON schema artefact" required:""`
	Out  string `help:"Output path for the generated YAML schema document" required:""`
}

// Run executes the import-schema command.
func (cmd *ImportSchemaCmd) Run(ctx *Context) error {
	if cmd.From != "tbls" {
		return fmt.Errorf("%w: %q", ErrUnsupportedImportSource, cmd.From)
	}

	if ctx.Verbose {
		color.Blue("Importing tbls schema from %s", cmd.In)
	}

	rt, err := schemaimport.LoadRuntime(context.Background(), schemaimport.Options{
		SchemaJSONPath: cmd.In,
		Verbose:        ctx.Verbose,
	})
	if err != nil {
		color.Red("Failed to import schema: %v", err)
		return fmt.Errorf("cel2sql: import schema: %w", err)
	}

	registry := rt.Registry()

	data, err := schema.MarshalYAML(registry)
	if err != nil {
		return fmt.Errorf("cel2sql: render schema YAML: %w", err)
	}

	if err := os.WriteFile(cmd.Out, data, 0o644); err != nil {
		return fmt.Errorf("cel2sql: write %q: %w", cmd.Out, err)
	}

	if !ctx.Quiet {
		color.Green("Wrote schema document to %s", cmd.Out)
	}

	return nil
}

// loadConfigAndRegistry loads the kernel Config from configPath, applies
// any --dialect/--mode overrides from the command line, and loads the
// Schema Registry from schemaPath when given.
func loadConfigAndRegistry(configPath, dialectOverride, modeOverride, schemaPath string, verbose bool) (*cel2sql.Config, *schema.Registry, error) {
	config, err := cel2sql.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("cel2sql: load config: %w", err)
	}

	if dialectOverride != "" {
		config.Dialect = dialectOverride
	}

	if modeOverride != "" {
		config.Mode = cel2sql.Mode(modeOverride)
	}

	switch dialect.Name(config.Dialect) {
	case dialect.PostgreSQL, dialect.MySQL, dialect.SQLite, dialect.DuckDB, dialect.BigQuery:
	default:
		return nil, nil, fmt.Errorf("%w: %q", dialect.ErrUnknownDialect, config.Dialect)
	}

	var registry *schema.Registry

	if schemaPath != "" {
		registry, err = schema.LoadYAML(schemaPath)
		if err != nil {
			return nil, nil, fmt.Errorf("cel2sql: load schema: %w", err)
		}

		if verbose {
			color.Blue("Loaded schema from %s (%d tables)", schemaPath, len(registry.Tables()))
		}
	}

	return config, registry, nil
}

func artifactOutput(a *cel2sql.Artifact) translateOutput {
	out := translateOutput{SQL: a.SQL, Parameters: a.Parameters}

	for _, r := range a.Recommendations {
		out.Recommendations = append(out.Recommendations, recommendationOutput{
			Table:      r.Table,
			Column:     r.Column,
			IndexType:  r.IndexType.String(),
			Expression: r.Expression,
			Reason:     r.Reason,
		})
	}

	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// reportDiagnostic prints a *cel2sql.Diagnostic's operator-facing detail
// message to stderr when verbose, before returning the public-safe error
// main() prints — so --verbose runs surface node positions and internal
// context (§7's dual-channel model) without leaking them into the error
// message a non-verbose run sees.
func reportDiagnostic(err error, verbose bool) error {
	var diag *cel2sql.Diagnostic
	if verbose && errors.As(err, &diag) {
		color.Red("%s", diag.DiagnosticMessage())
	}

	return err
}
