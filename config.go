package cel2sql

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/sqlbuf"
)

// Mode selects how literals are rendered into the output SQL (§4.4).
type Mode string

const (
	ModeInline        Mode = "inline"
	ModeParameterized Mode = "parameterized"
)

// SchemaSourceConfig describes where a translation's Schema Registry is
// loaded from (§3.2's two loader mechanics).
type SchemaSourceConfig struct {
	// Format is "yaml" (hand-authored schema document) or "tbls-json" (a
	// k1LoW/tbls JSON schema artefact, consumed via schemaimport).
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// LimitsConfig mirrors sqlbuf.Limits in YAML-friendly form; zero fields fall
// back to sqlbuf.DefaultLimits() values in ToSQLBufLimits.
type LimitsConfig struct {
	MaxOutputLength         int `yaml:"max_output_length"`
	MaxDepth                int `yaml:"max_depth"`
	MaxComprehensionNesting int `yaml:"max_comprehension_nesting"`
	MaxPatternLength        int `yaml:"max_pattern_length"`
	MaxIdentifierLength     int `yaml:"max_identifier_length"`
	MaxBytesLiteral         int `yaml:"max_bytes_literal"`
}

// ToSQLBufLimits converts the YAML-friendly config into sqlbuf.Limits,
// filling unset (zero) fields from sqlbuf.DefaultLimits().
func (l LimitsConfig) ToSQLBufLimits() sqlbuf.Limits {
	d := sqlbuf.DefaultLimits()

	result := d
	if l.MaxOutputLength > 0 {
		result.MaxOutputLength = l.MaxOutputLength
	}

	if l.MaxDepth > 0 {
		result.MaxDepth = l.MaxDepth
	}

	if l.MaxComprehensionNesting > 0 {
		result.MaxComprehensionNesting = l.MaxComprehensionNesting
	}

	if l.MaxPatternLength > 0 {
		result.MaxPatternLength = l.MaxPatternLength
	}

	if l.MaxIdentifierLength > 0 {
		result.MaxIdentifierLength = l.MaxIdentifierLength
	}

	if l.MaxBytesLiteral > 0 {
		result.MaxBytesLiteral = l.MaxBytesLiteral
	}

	return result
}

// Config is the kernel-level translation configuration, plus the CLI-facing
// schema source and verbosity flags that the command layer wires up rather
// than the translation kernel itself.
type Config struct {
	Dialect string             `yaml:"dialect"`
	Mode    Mode               `yaml:"mode"`
	Schema  SchemaSourceConfig `yaml:"schema"`
	Limits  LimitsConfig       `yaml:"limits"`

	Verbose bool `yaml:"-"`
	Quiet   bool `yaml:"-"`
}

// DefaultConfig returns the spec's default configuration: PostgreSQL,
// inline mode, default resource limits, no schema source configured.
func DefaultConfig() *Config {
	return &Config{
		Dialect: string(dialect.PostgreSQL),
		Mode:    ModeInline,
	}
}

// LoadConfig loads translation configuration from configPath, falling back
// to DefaultConfig when the file does not exist. Environment variables
// referenced as ${VAR} or $VAR in the schema path are expanded after
// loading any .env file found in the working directory.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("cel2sql: load environment files: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cel2sql: read config file: %w", err)
	}

	config := DefaultConfig()

	if err := yaml.UnmarshalWithOptions(data, config, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("cel2sql: parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	expandConfigEnvVars(config)

	return config, nil
}

func validateConfig(config *Config) error {
	switch dialect.Name(config.Dialect) {
	case dialect.PostgreSQL, dialect.MySQL, dialect.SQLite, dialect.DuckDB, dialect.BigQuery:
	default:
		return fmt.Errorf("%w: invalid dialect %q", ErrParseRejected, config.Dialect)
	}

	switch config.Mode {
	case "", ModeInline, ModeParameterized:
	default:
		return fmt.Errorf("%w: invalid mode %q: must be inline or parameterized", ErrParseRejected, config.Mode)
	}

	if config.Mode == "" {
		config.Mode = ModeInline
	}

	switch config.Schema.Format {
	case "", "yaml", "tbls-json":
	default:
		return fmt.Errorf("%w: invalid schema format %q: must be yaml or tbls-json", ErrParseRejected, config.Schema.Format)
	}

	return nil
}

func loadEnvFiles() error {
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env file: %w", err)
		}
	}

	return nil
}

var (
	envBraceRE = regexp.MustCompile(`\$\{([^}]+)\}`)
	envWordRE  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references against the process
// environment.
func expandEnvVars(s string) string {
	s = envBraceRE.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	s = envWordRE.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})

	return s
}

func expandConfigEnvVars(config *Config) {
	config.Schema.Path = expandEnvVars(config.Schema.Path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
