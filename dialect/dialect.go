// Package dialect implements the Dialect Interface (C5): an abstract
// capability table of SQL write-primitives the translator invokes, with one
// concrete implementation per target (PostgreSQL, DuckDB, BigQuery, MySQL,
// SQLite). Every capability is passed a writer handle and, where it wraps a
// sub-expression, an emit-thunk (WriteFunc) rather than a pre-rendered
// string, so wrap-style and suffix-style dialects share one translator
// (§4.5, §9 "callback-driven dialect abstraction").
package dialect

import "errors"

// ErrUnsupportedFeature is returned by a capability a dialect cannot
// express at all (e.g. SQLite has no regex, no split/join).
var ErrUnsupportedFeature = errors.New("feature unsupported by dialect")

// ErrInvalidIdentifier is returned by ValidateFieldName.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrUnknownDialect is returned by Get for an unrecognized dialect name.
var ErrUnknownDialect = errors.New("unknown dialect")

// Name identifies one of the five supported SQL targets.
type Name string

const (
	PostgreSQL Name = "postgresql"
	MySQL      Name = "mysql"
	SQLite     Name = "sqlite"
	DuckDB     Name = "duckdb"
	BigQuery   Name = "bigquery"
)

// Writer is the minimal append surface a Dialect writes into. It is
// satisfied by *sqlbuf.Buffer.
type Writer interface {
	WriteString(s string) error
}

// WriteFunc is an emit-thunk: a deferred sub-expression emitter. Invoking it
// writes the sub-expression into the shared Writer the enclosing capability
// call was given.
type WriteFunc func() error

// Dialect is the capability bundle the translator consumes for every
// syntactic choice (§4.5). Every method that can fail (because writing
// failed, or because a callback returned an error, or because the dialect
// simply cannot express the capability) returns an error.
type Dialect interface {
	Name() Name

	// --- Literals ---
	WriteStringLiteral(w Writer, value string) error
	WriteBytesLiteral(w Writer, value []byte) error
	WriteParamPlaceholder(w Writer, paramIndex int) error

	// --- Operators ---
	WriteStringConcat(w Writer, lhs, rhs WriteFunc) error
	WriteRegexMatch(w Writer, target WriteFunc, pattern string, caseInsensitive bool) error
	WriteLikeEscape(w Writer) error
	WriteArrayMembership(w Writer, elem, array WriteFunc) error

	// --- Type casting ---
	WriteCastToNumeric(w Writer, expr WriteFunc) error
	WriteTypeName(w Writer, celTypeName string) error
	WriteEpochExtract(w Writer, expr WriteFunc) error
	WriteTimestampCast(w Writer, expr WriteFunc) error

	// --- Arrays ---
	WriteArrayLiteralOpen(w Writer) error
	WriteArrayLiteralClose(w Writer) error
	WriteArrayLength(w Writer, dimension int, expr WriteFunc) error
	WriteListIndex(w Writer, array, index WriteFunc) error
	WriteListIndexConst(w Writer, array WriteFunc, index int) error
	WriteEmptyTypedArray(w Writer, typeName string) error

	// --- JSON ---
	WriteJSONFieldAccess(w Writer, base WriteFunc, fieldName string, isFinal bool) error
	WriteJSONExistence(w Writer, isJSONB bool, fieldName string, base WriteFunc) error
	WriteJSONArrayElements(w Writer, isJSONB, asText bool, expr WriteFunc) error
	WriteJSONArrayLength(w Writer, expr WriteFunc) error
	WriteJSONArrayMembership(w Writer, jsonFunc string, expr WriteFunc) error
	WriteNestedJSONArrayMembership(w Writer, expr WriteFunc) error

	// --- Timestamps ---
	WriteDuration(w Writer, value int64, unit string) error
	WriteInterval(w Writer, value WriteFunc, unit string) error
	WriteExtract(w Writer, part string, expr WriteFunc, tz WriteFunc) error
	WriteTimestampArithmetic(w Writer, op string, ts, dur WriteFunc) error

	// --- String functions ---
	WriteContains(w Writer, haystack, needle WriteFunc) error
	WriteSplit(w Writer, str, delim WriteFunc) error
	WriteSplitWithLimit(w Writer, str, delim WriteFunc, limit int) error
	WriteJoin(w Writer, array, delim WriteFunc) error

	// --- Comprehensions ---
	WriteUnnest(w Writer, source WriteFunc) error
	WriteArraySubqueryOpen(w Writer) error
	WriteArraySubqueryExprClose(w Writer) error

	// --- Struct ---
	WriteStructOpen(w Writer) error
	WriteStructClose(w Writer) error

	// --- Regex translation ---
	// ConvertRegex translates an RE2 pattern into this dialect's native
	// regex flavor, returning the translated pattern and whether a
	// case-insensitive flag was extracted. Dialects without usable regex
	// support return ErrUnsupportedFeature.
	ConvertRegex(re2Pattern string) (pattern string, caseInsensitive bool, err error)

	// --- Identifiers ---
	MaxIdentifierLength() int
	ValidateFieldName(name string) error
	QuoteIdentifier(name string) string

	// --- Capabilities ---
	SupportsNativeArrays() bool
	SupportsJSONB() bool
}

// emitter sequences a run of literal-string writes and emit-thunk
// invocations against a Writer, short-circuiting on the first error. Every
// concrete dialect's capability methods are written as a short sequence of
// e.s(...)/e.f(...) calls terminated by `return e.err`.
type emitter struct {
	w   Writer
	err error
}

func (e *emitter) s(str string) {
	if e.err == nil {
		e.err = e.w.WriteString(str)
	}
}

func (e *emitter) f(fn WriteFunc) {
	if e.err == nil && fn != nil {
		e.err = fn()
	}
}

// Get returns the concrete Dialect for name.
func Get(name Name) (Dialect, error) {
	switch name {
	case PostgreSQL:
		return &postgres{}, nil
	case MySQL:
		return &mysql{}, nil
	case SQLite:
		return &sqlite{}, nil
	case DuckDB:
		return &duckdb{}, nil
	case BigQuery:
		return &bigquery{}, nil
	default:
		return nil, ErrUnknownDialect
	}
}
