// Command cel2sql translates CEL filter expressions into dialect-specific
// SQL WHERE-clause fragments, reports index recommendations for them, and
// imports database schemas for the translator's schema registry. Subcommands
// are modeled as a kong Context plus a CLI struct, one Run method per
// subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// Context carries the global flags every subcommand's Run method receives.
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

// CLI is kong's command tree: one struct field per subcommand.
var CLI struct {
	Config string `help:"Configuration file path" default:"cel2sql.yaml"`

	Verbose bool `help:"Enable verbose output" short:"v"`
	Quiet   bool `help:"Suppress non-essential output" short:"q"`

	Translate    TranslateCmd    `cmd:"" help:"Translate a CEL expression into a SQL WHERE-clause fragment"`
	Analyze      AnalyzeCmd      `cmd:"" help:"Report index recommendations for a CEL expression"`
	ImportSchema ImportSchemaCmd `cmd:"" help:"Import a database schema into the Schema Registry's YAML format"`
	Version      VersionCmd      `cmd:"" help:"Show version information"`
}

// VersionCmd prints the tool's version.
type VersionCmd struct{}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println("cel2sql v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
