// Package cel2sql translates CEL (Common Expression Language) filter
// expressions into dialect-specific SQL WHERE-clause fragments. This file
// defines the package's sentinel error taxonomy and the dual-channel
// Diagnostic type every translation failure is reported through.
package cel2sql

import (
	"errors"
	"fmt"

	"github.com/shibukawa/cel2sql/ast"
)

// Sentinel errors, one per error-taxonomy kind. Components across the
// module (translator, celadapt, dialect, sqlbuf) return their own sentinel
// errors; this package maps each of them onto one of these, so callers can
// branch with errors.Is regardless of which package raised it.
var (
	// ErrParseRejected indicates the input AST is not well-formed.
	ErrParseRejected = errors.New("AST not well-formed")
	// ErrUnsupportedFeature indicates a CEL construct outside the accepted surface.
	ErrUnsupportedFeature = errors.New("CEL construct not supported")
	// ErrUnresolvedIdentifier indicates a reference outside the schema registry with no dialect fallback.
	ErrUnresolvedIdentifier = errors.New("identifier could not be resolved")
	// ErrTypeMismatch indicates an operator or receiver rejected the inferred operand type.
	ErrTypeMismatch = errors.New("operand type mismatch")
	// ErrAmbiguousSize indicates size() was called on a receiver whose type could not be inferred.
	ErrAmbiguousSize = errors.New("size() receiver type is ambiguous")
	// ErrNonJSONPath indicates a field-select chain continued past a scalar field.
	ErrNonJSONPath = errors.New("field select continues past a scalar field")
	// ErrRegexUnsupported indicates the dialect cannot express the requested pattern.
	ErrRegexUnsupported = errors.New("regular expression not supported by dialect")
	// ErrInvalidIdentifier indicates a field name fails length or character policy.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrDepthExceeded indicates AST recursion depth exceeded the configured limit.
	ErrDepthExceeded = errors.New("AST depth exceeded")
	// ErrOutputTooLarge indicates cumulative output length exceeded the configured limit.
	ErrOutputTooLarge = errors.New("output too large")
	// ErrComprehensionTooDeep indicates comprehension nesting exceeded the configured limit.
	ErrComprehensionTooDeep = errors.New("comprehension nesting too deep")
	// ErrPatternTooLong indicates a regex pattern exceeded the configured length limit.
	ErrPatternTooLong = errors.New("regex pattern too long")
	// ErrBytesTooLarge indicates a bytes literal exceeded the configured size limit.
	ErrBytesTooLarge = errors.New("bytes literal too large")
	// ErrInternal indicates an invariant was violated; this should never occur.
	ErrInternal = errors.New("internal invariant violated")
)

// Diagnostic is the dual-channel error payload every translation failure is
// wrapped in (§7). Public is safe to show to end users: it never contains
// literal fragments copied from user input or internal node paths. Detail is
// for operators: it may carry node positions, partial expression dumps, and
// other internal context. Consumers choose which to log, mitigating
// information disclosure (CWE-209).
type Diagnostic struct {
	kind   error
	Public string
	Detail string
	Pos    ast.Position
}

// NewDiagnostic wraps kind (one of the sentinel errors above) with a public
// and a diagnostic message.
func NewDiagnostic(kind error, public, detail string, pos ast.Position) *Diagnostic {
	return &Diagnostic{kind: kind, Public: public, Detail: detail, Pos: pos}
}

// Error returns the public-safe message.
func (d *Diagnostic) Error() string {
	if d.Public != "" {
		return d.Public
	}

	return d.kind.Error()
}

// Unwrap exposes the sentinel kind for errors.Is/errors.As.
func (d *Diagnostic) Unwrap() error { return d.kind }

// DiagnosticMessage renders the full internal-context message, including
// source position and detail, intended for operator logs only.
func (d *Diagnostic) DiagnosticMessage() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s at %d:%d", d.kind.Error(), d.Pos.Line, d.Pos.Column)
	}

	return fmt.Sprintf("%s at %d:%d: %s", d.kind.Error(), d.Pos.Line, d.Pos.Column, d.Detail)
}
