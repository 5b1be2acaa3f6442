// Package translator implements the context-sensitive tree walker that is
// the core of the translation kernel. It consumes a celadapt-lowered
// ast.Node, a schema.Registry, a dialect.Dialect and an output sqlbuf.Buffer,
// and drives dialect capability calls for every syntactic choice,
// propagating a context hint (boolean/numeric/string/any) down the tree the
// way CEL's overloaded operators require: the same expression renders
// differently depending on whether its result feeds a boolean WHERE clause,
// a numeric comparison, or a string concatenation.
package translator

import (
	"errors"
	"fmt"

	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/params"
	"github.com/shibukawa/cel2sql/schema"
	"github.com/shibukawa/cel2sql/sqlbuf"
)

// Sentinel errors specific to the walker's own inference failures. Errors
// surfaced by sqlbuf (depth/output/comprehension/pattern/bytes limits) and by
// dialect (ErrUnsupportedFeature, ErrInvalidIdentifier) propagate unwrapped
// through %w so callers can errors.Is against whichever package raised them;
// the root cel2sql package maps all of them onto its own Diagnostic taxonomy.
var (
	// ErrParseRejected indicates the AST handed to the walker is not well-formed.
	ErrParseRejected = errors.New("translator: AST not well-formed")
	// ErrUnsupportedFeature indicates a CEL construct outside §6.1's accepted surface.
	ErrUnsupportedFeature = errors.New("translator: CEL construct not supported")
	// ErrUnresolvedIdentifier indicates a bare identifier that is neither a
	// registered table nor a dialect-reserved literal (I1).
	ErrUnresolvedIdentifier = errors.New("translator: identifier could not be resolved")
	// ErrTypeMismatch indicates an operator or receiver rejected the inferred operand type.
	ErrTypeMismatch = errors.New("translator: operand type mismatch")
	// ErrAmbiguousSize indicates size() was called on a receiver whose type could not be inferred (§4.6.6).
	ErrAmbiguousSize = errors.New("translator: size() receiver type is ambiguous")
	// ErrNonJSONPath indicates a field-select chain continued past a scalar or array field (I2, §4.6.3).
	ErrNonJSONPath = errors.New("translator: field select continues past a scalar field")
	// ErrInternal indicates an invariant was violated; this should never occur.
	ErrInternal = errors.New("translator: internal invariant violated")
)

// Context is the propagated hint recording the syntactic position an
// expression is being emitted in (§4.6.1). It disambiguates CEL's operator
// overloading and enables JSON-to-number coercion in numeric position.
type Context int

const (
	CtxAny Context = iota
	CtxBoolean
	CtxNumeric
	CtxString
)

// valueType is the walker's local, best-effort type inference result for one
// subexpression — never a full type-check, only enough to disambiguate
// overloaded operators and JSON coercions (§9 "context-sensitive walker vs.
// separate type-check pass").
type valueType int

const (
	tUnknown valueType = iota
	tBool
	tString
	tBytes
	tInt
	tUint
	tDouble
	tNumeric // arithmetic result or JSON-extracted value of indeterminate exactness
	tTimestamp
	tDuration
	tArray    // native/schema array column, or a list literal
	tMap      // CEL map or struct literal
	tJSON     // JSON value not yet scalar-extracted (a subtree)
	tJSONText // JSON value after scalar-extract: text unless cast to numeric
	tNull
)

func isNumericType(t valueType) bool {
	switch t {
	case tInt, tUint, tDouble, tNumeric:
		return true
	default:
		return false
	}
}

// Translator walks one ast.Node tree and writes SQL into buf, consulting d
// for every syntactic choice and registry for every field reference. One
// Translator instance is scoped to a single translation (§3.4, §5).
type Translator struct {
	d        dialect.Dialect
	registry *schema.Registry
	buf      *sqlbuf.Buffer
	binder   *params.Binder

	// iterScope holds the iteration-variable names currently in scope for
	// comprehension bodies, innermost last, so a bare Identifier matching one
	// of them is resolved as the loop variable rather than an unresolved
	// identifier or a table reference (§4.6.5).
	iterScope []string
}

// New creates a Translator for one translation. buf must already be
// configured with the resource limits for this call (§4.3); binder performs
// literal escaping or placeholder allocation per the configured Mode (§4.4).
func New(d dialect.Dialect, registry *schema.Registry, buf *sqlbuf.Buffer, binder *params.Binder) *Translator {
	return &Translator{d: d, registry: registry, buf: buf, binder: binder}
}

// Translate walks root and writes the translated SQL WHERE-clause fragment
// into the Translator's buffer. It returns the first error encountered;
// per P2, an error means the caller must discard the buffer's contents
// rather than treat them as valid partial output.
func (t *Translator) Translate(root ast.Node) error {
	w, _, err := t.expr(root, CtxBoolean)
	if err != nil {
		return err
	}

	return w()
}

// expr is the single recursive-descent entry point every node type flows
// through. It enforces the depth limit before descending (§4.3) and then
// dispatches on the node's concrete type via an exhaustive switch, matching
// the closed ast.Node variant set (§3.1).
func (t *Translator) expr(node ast.Node, ctx Context) (WriteFunc, valueType, error) {
	if node == nil {
		return nil, tUnknown, fmt.Errorf("%w: nil expression node", ErrParseRejected)
	}

	leave, err := t.buf.EnterDepth()
	if err != nil {
		return nil, tUnknown, err
	}
	defer leave()

	switch n := node.(type) {
	case *ast.Literal:
		return t.literal(n)
	case *ast.Identifier:
		return t.identifier(n)
	case *ast.FieldSelect:
		return t.fieldSelectAsValue(n)
	case *ast.Index:
		return t.index(n, ctx)
	case *ast.Call:
		return t.call(n, ctx)
	case *ast.Unary:
		return t.unary(n, ctx)
	case *ast.Binary:
		return t.binary(n, ctx)
	case *ast.Conditional:
		return t.conditional(n, ctx)
	case *ast.ListLiteral:
		return t.listLiteral(n)
	case *ast.MapLiteral:
		return t.mapLiteral(n)
	case *ast.StructLiteral:
		return t.structLiteral(n)
	case *ast.Comprehension:
		return t.comprehension(n)
	default:
		return nil, tUnknown, fmt.Errorf("%w: unrecognized AST node %T", ErrInternal, node)
	}
}

// writeExpr is a convenience for capability calls that just need the
// sub-expression written with no further inspection of its inferred type.
func (t *Translator) writeExpr(node ast.Node, ctx Context) (WriteFunc, error) {
	w, _, err := t.expr(node, ctx)
	return w, err
}

// WriteFunc mirrors dialect.WriteFunc; the walker builds its own thunks that
// close over already-computed sub-results rather than re-walking, so this
// alias just documents the shape at the translator/dialect boundary.
type WriteFunc = dialect.WriteFunc

func (t *Translator) lit(s string) WriteFunc {
	return func() error { return t.buf.WriteString(s) }
}
