package cel2sql

import (
	"errors"
	"strings"

	"github.com/shibukawa/cel2sql/advisor"
	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/celadapt"
	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/params"
	"github.com/shibukawa/cel2sql/schema"
	"github.com/shibukawa/cel2sql/sqlbuf"
	"github.com/shibukawa/cel2sql/translator"
)

// Parse compiles CEL source text down to the kernel's own ast.Node tree,
// bridging celadapt's cel-go-facing error taxonomy onto this package's
// Diagnostic-wrapped sentinels the same way Translate bridges the
// translator/dialect/sqlbuf taxonomies (§7). It never consults a Schema
// Registry — identifier resolution happens later, inside Translate.
func Parse(source string) (ast.Node, error) {
	celAST, err := celadapt.ParseToAST(source)
	if err != nil {
		return nil, wrapDiagnostic(err, nil)
	}

	root, err := celadapt.Lower(celAST)
	if err != nil {
		return nil, wrapDiagnostic(err, nil)
	}

	return root, nil
}

// Artifact is the result of one successful translation: the rendered SQL
// WHERE-clause fragment, the ordered bind values (empty in inline mode), and
// any index recommendations the Index Advisor produced.
type Artifact struct {
	SQL             string
	Parameters      []any
	Recommendations []advisor.Recommendation
}

// Translate lowers a celadapt-produced AST into one Artifact for config's
// configured dialect and mode (§5). registry may be nil — field accesses
// then degrade to plain columns everywhere (P7). Index recommendations are
// only computed when withAdvisor is true, since the advisor performs a
// second full walk of root.
func Translate(root ast.Node, registry *schema.Registry, config *Config, withAdvisor bool) (*Artifact, error) {
	d, err := dialect.Get(dialect.Name(config.Dialect))
	if err != nil {
		return nil, wrapDiagnostic(err, root)
	}

	buf := sqlbuf.New(config.Limits.ToSQLBufLimits())
	binder := params.NewBinder(d, config.Mode == ModeParameterized)

	w := translator.New(d, registry, buf, binder)
	if err := w.Translate(root); err != nil {
		return nil, wrapDiagnostic(err, root)
	}

	artifact := &Artifact{SQL: buf.String(), Parameters: binder.Parameters()}

	if withAdvisor {
		recs, err := advisor.Analyze(root, registry, d.Name())
		if err != nil {
			return nil, wrapDiagnostic(err, root)
		}

		artifact.Recommendations = recs
	}

	return artifact, nil
}

// wrapDiagnostic maps an error raised by translator, dialect, sqlbuf, params
// or advisor onto this package's Diagnostic-wrapped sentinel taxonomy (§7),
// so every caller of Translate branches against one consistent error
// vocabulary regardless of which subpackage actually detected the problem.
// The Detail channel carries err's own message (which may include internal
// context like node positions or raw identifiers); Public stays generic.
func wrapDiagnostic(err error, root ast.Node) error {
	pos := ast.Position{}
	if root != nil {
		pos = root.Pos()
	}

	kind, public := classify(err)

	return NewDiagnostic(kind, public, err.Error(), pos)
}

type sentinelMapping struct {
	wrapped error
	dialect error
	sqlbuf  error
	root    error
	public  string
}

var sentinelMappings = []sentinelMapping{
	{wrapped: celadapt.ErrSyntax, root: ErrParseRejected, public: "the expression could not be parsed"},
	{wrapped: celadapt.ErrMalformedAST, root: ErrParseRejected, public: "the expression could not be parsed"},
	{wrapped: celadapt.ErrUnsupportedExpr, root: ErrUnsupportedFeature, public: "the expression uses a construct this target does not support"},
	{wrapped: translator.ErrParseRejected, root: ErrParseRejected, public: "the expression could not be parsed"},
	{wrapped: translator.ErrUnsupportedFeature, root: ErrUnsupportedFeature, public: "the expression uses a construct this target does not support"},
	{wrapped: translator.ErrUnresolvedIdentifier, root: ErrUnresolvedIdentifier, public: "the expression references an unresolvable identifier"},
	{wrapped: translator.ErrTypeMismatch, root: ErrTypeMismatch, public: "the expression has a type mismatch"},
	{wrapped: translator.ErrAmbiguousSize, root: ErrAmbiguousSize, public: "size() could not be resolved to a single operation"},
	{wrapped: translator.ErrNonJSONPath, root: ErrNonJSONPath, public: "a field was chained past a non-JSON value"},
	{wrapped: translator.ErrInternal, root: ErrInternal, public: "an internal error occurred"},
	{dialect: dialect.ErrUnsupportedFeature, root: ErrUnsupportedFeature, public: "the expression uses a construct this target does not support"},
	{dialect: dialect.ErrInvalidIdentifier, root: ErrInvalidIdentifier, public: "a field or table name is invalid for this target"},
	{dialect: dialect.ErrUnknownDialect, root: ErrParseRejected, public: "an unknown SQL dialect was requested"},
	{sqlbuf: sqlbuf.ErrDepthExceeded, root: ErrDepthExceeded, public: "the expression is nested too deeply"},
	{sqlbuf: sqlbuf.ErrOutputTooLarge, root: ErrOutputTooLarge, public: "the translated output exceeded the configured size limit"},
	{sqlbuf: sqlbuf.ErrComprehensionTooDeep, root: ErrComprehensionTooDeep, public: "the expression nests too many comprehensions"},
	{sqlbuf: sqlbuf.ErrPatternTooLong, root: ErrPatternTooLong, public: "a regular expression pattern exceeded the configured length limit"},
	{sqlbuf: sqlbuf.ErrBytesTooLarge, root: ErrBytesTooLarge, public: "a bytes literal exceeded the configured size limit"},
}

func classify(err error) (kind error, public string) {
	for _, m := range sentinelMappings {
		switch {
		case m.wrapped != nil && errors.Is(err, m.wrapped):
			return resolveRegexKind(err, m), m.public
		case m.dialect != nil && errors.Is(err, m.dialect):
			return resolveRegexKind(err, m), m.public
		case m.sqlbuf != nil && errors.Is(err, m.sqlbuf):
			return m.root, m.public
		}
	}

	return ErrInternal, "an internal error occurred"
}

// resolveRegexKind special-cases dialect.ErrUnsupportedFeature raised from
// ConvertRegex: the translator's matches() call site has no distinct
// sentinel of its own to wrap it in (it wraps the dialect error under a
// "matches() regex:" prefix), so this is the one place that can tell a
// rejected regex apart from a general unsupported construct — by that
// message.
func resolveRegexKind(err error, m sentinelMapping) error {
	if errors.Is(err, dialect.ErrUnsupportedFeature) && isRegexError(err) {
		return ErrRegexUnsupported
	}

	return m.root
}

func isRegexError(err error) bool {
	msg := err.Error()

	for _, sub := range []string{"regex", "regular expression", "RE2", "pattern"} {
		if strings.Contains(msg, sub) {
			return true
		}
	}

	return false
}
