package schemaimport

// Options describes the inputs required to construct a Config instance.
type Options struct {
    // WorkingDir is the base directory used to resolve relative paths.
    WorkingDir string
    // TblsConfigPath is the path to .tbls.yml / tbls.yml resolved from CLI or defaults.
    TblsConfigPath string
	// SchemaJSONPath is the path to the tbls-generated schema.json file.
	SchemaJSONPath string
	// OutputDir is resolved against the working directory and kept in Config;
	// the importer itself writes no files.
	OutputDir string
	// Include holds shell-glob table patterns copied into Config; Convert does
	// not filter tables by them.
	Include []string
	// Exclude holds table patterns copied into Config; Convert does not filter
	// tables by them.
	Exclude []string
	// IncludeViews, when non-nil, sets Config.IncludeViews (default true);
	// Convert registers views either way.
	IncludeViews *bool
	// IncludeIndexes, when non-nil, sets Config.IncludeIndexes (default true);
	// no index metadata is imported either way.
	IncludeIndexes *bool
	// SchemaAware, when non-nil, sets Config.SchemaAware (default true);
	// nothing in this package reads it.
	SchemaAware *bool
    // DryRun is copied into Config; nothing in this package reads it.
    DryRun bool
    // Experimental is copied into Config; nothing in this package reads it.
    Experimental bool
    // Verbose toggles detailed logging.
    Verbose bool
    // Logger, when non-nil, is used for verbose logging.
    Logger func(format string, args ...any)
}
