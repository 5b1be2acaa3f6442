package schemaimport

import (
	"context"

	"github.com/shibukawa/cel2sql/schema"
)

// Runtime holds resolved tbls configuration alongside the converted
// schema.Registry.
type Runtime struct {
	Config Config

	registry *schema.Registry
}

// LoadRuntime resolves tbls configuration from opts, loads the schema JSON
// artefact it points at, and converts it into a schema.Registry.
func LoadRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := ResolveConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	importer := NewImporter(cfg)
	if err := importer.LoadSchemaJSON(ctx); err != nil {
		return nil, err
	}

	registry, err := importer.Convert(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Verbose {
		cfg.logf("Runtime prepared: tables=%d", len(registry.Tables()))
	}

	return &Runtime{Config: cfg, registry: registry}, nil
}

// Registry returns the schema.Registry built from the imported schema.
func (r *Runtime) Registry() *schema.Registry {
	if r == nil {
		return schema.NewRegistry()
	}

	return r.registry
}
