package translator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/schema"
)

// isJSONArrayRange reports whether n denotes a JSON-typed array (as opposed
// to a native array column or list literal), and if so, whether the field's
// storage is JSONB, so the comprehension source clause can pick the right
// element-expansion function (§4.6.5).
func (t *Translator) isJSONArrayRange(n ast.Node) (isJSON bool, isBinary bool) {
	fs, ok := n.(*ast.FieldSelect)
	if !ok {
		return false, false
	}

	c := collectChain(fs)

	ident, ok := c.root.(*ast.Identifier)
	if !ok {
		return false, false
	}

	sch, ok := t.registry.Table(ident.Name)
	if !ok {
		return false, false
	}

	field, ok := sch.Field(c.segments[0])
	if !ok || field.Kind != schema.FieldJSON {
		return false, false
	}

	return true, field.IsBinaryJSON
}

// comprehension lowers one of CEL's five collection macros into a SQL
// subquery over the range expression's elements: EXISTS/NOT EXISTS for
// exists()/all(), COUNT(*) comparisons for exists_one(), and
// ARRAY(SELECT ...) for map()/filter(). Each case drives the dialect's
// callback-based write primitives rather than building the subquery string
// directly, so every dialect gets correct quoting and parameter placement
// for free.
func (t *Translator) comprehension(n *ast.Comprehension) (WriteFunc, valueType, error) {
	leave, err := t.buf.EnterComprehension()
	if err != nil {
		return nil, tUnknown, err
	}
	defer leave()

	isJSON, isBinary := t.isJSONArrayRange(n.Range)

	rangeWrite, _, err := t.expr(n.Range, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	alias := t.pushIterScope(n.IterVar)
	defer t.popIterScope()

	source, err := t.comprehensionSource(rangeWrite, isJSON, isBinary)
	if err != nil {
		return nil, tUnknown, err
	}

	switch n.Kind {
	case ast.ComprehensionExists:
		return t.existsComprehension(source, alias, n.Predicate, false)
	case ast.ComprehensionAll:
		return t.existsComprehension(source, alias, n.Predicate, true)
	case ast.ComprehensionExistsOne:
		return t.existsOneComprehension(source, alias, n.Predicate)
	case ast.ComprehensionFilter:
		return t.projectionComprehension(source, alias, n.Predicate, nil)
	case ast.ComprehensionMap:
		return t.projectionComprehension(source, alias, nil, n.Result)
	default:
		return nil, tUnknown, fmt.Errorf("%w: comprehension kind %d", ErrInternal, n.Kind)
	}
}

// pushIterScope registers n.IterVar as resolvable and returns the SQL alias
// to use for it in the generated subquery. Nested comprehensions reusing the
// same CEL-level name (disallowed by cel-go's own shadow check within one
// scope, but reachable via distinct branches of a larger expression) each
// get a distinct alias so no two nested UNNEST clauses in the same statement
// share a table alias.
func (t *Translator) pushIterScope(name string) string {
	alias := name

	for _, existing := range t.iterScope {
		if existing == alias {
			alias = name + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
			break
		}
	}

	t.iterScope = append(t.iterScope, alias)

	return alias
}

func (t *Translator) popIterScope() {
	t.iterScope = t.iterScope[:len(t.iterScope)-1]
}

// comprehensionSource writes the FROM-clause source expression: UNNEST(...)
// for a native array, or the dialect's JSON-array-elements expansion for a
// JSON-typed array field.
func (t *Translator) comprehensionSource(rangeWrite WriteFunc, isJSON, isBinary bool) (WriteFunc, error) {
	if isJSON {
		return func() error { return t.d.WriteJSONArrayElements(t.buf, isBinary, false, rangeWrite) }, nil
	}

	return func() error { return t.d.WriteUnnest(t.buf, rangeWrite) }, nil
}

func (t *Translator) writeFromClause(source WriteFunc, alias string) WriteFunc {
	return func() error {
		if err := t.buf.WriteString("SELECT 1 FROM "); err != nil {
			return err
		}

		if err := source(); err != nil {
			return err
		}

		return t.buf.WriteString(" AS " + alias)
	}
}

// existsComprehension renders exists() (negate=false) or all() (negate=true)
// as EXISTS/NOT EXISTS over a WHERE clause built from the predicate; all()
// negates the predicate itself rather than the EXISTS ("NOT EXISTS (...
// WHERE NOT (predicate))") so an empty range degrades to "vacuously true"
// for all().
func (t *Translator) existsComprehension(source WriteFunc, alias string, predicate ast.Node, negate bool) (WriteFunc, valueType, error) {
	pred, _, err := t.expr(predicate, CtxBoolean)
	if err != nil {
		return nil, tUnknown, err
	}

	from := t.writeFromClause(source, alias)

	w := func() error {
		prefix := "EXISTS ("
		if negate {
			prefix = "NOT EXISTS ("
		}

		if err := t.buf.WriteString(prefix); err != nil {
			return err
		}

		if err := from(); err != nil {
			return err
		}

		if err := t.buf.WriteString(" WHERE "); err != nil {
			return err
		}

		if negate {
			if err := t.buf.WriteString("NOT ("); err != nil {
				return err
			}
		}

		if err := pred(); err != nil {
			return err
		}

		if negate {
			if err := t.buf.WriteString(")"); err != nil {
				return err
			}
		}

		return t.buf.WriteString(")")
	}

	return w, tBool, nil
}

// existsOneComprehension renders exists_one() as a COUNT(*) subquery
// compared to 1.
func (t *Translator) existsOneComprehension(source WriteFunc, alias string, predicate ast.Node) (WriteFunc, valueType, error) {
	pred, _, err := t.expr(predicate, CtxBoolean)
	if err != nil {
		return nil, tUnknown, err
	}

	return func() error {
		if err := t.buf.WriteString("(SELECT COUNT(*) FROM "); err != nil {
			return err
		}

		if err := source(); err != nil {
			return err
		}

		if err := t.buf.WriteString(" AS " + alias + " WHERE "); err != nil {
			return err
		}

		if err := pred(); err != nil {
			return err
		}

		return t.buf.WriteString(") = 1")
	}, tBool, nil
}

// projectionComprehension renders map() (predicate == nil) or filter()
// (result == nil) as an ARRAY(SELECT ...) subquery producing a new array
// value (§4.6.5). filter() projects the iteration variable itself, gated by
// a WHERE clause; map() projects the transform expression over every
// element with no WHERE clause.
func (t *Translator) projectionComprehension(source WriteFunc, alias string, predicate, result ast.Node) (WriteFunc, valueType, error) {
	var projection WriteFunc

	var where WriteFunc

	if result != nil {
		w, _, err := t.expr(result, CtxAny)
		if err != nil {
			return nil, tUnknown, err
		}

		projection = w
	} else {
		projection = t.lit(alias)

		w, _, err := t.expr(predicate, CtxBoolean)
		if err != nil {
			return nil, tUnknown, err
		}

		where = w
	}

	w := func() error {
		if err := t.d.WriteArraySubqueryOpen(t.buf); err != nil {
			return err
		}

		if err := projection(); err != nil {
			return err
		}

		if err := t.buf.WriteString(" FROM "); err != nil {
			return err
		}

		if err := source(); err != nil {
			return err
		}

		if err := t.buf.WriteString(" AS " + alias); err != nil {
			return err
		}

		if where != nil {
			if err := t.buf.WriteString(" WHERE "); err != nil {
				return err
			}

			if err := where(); err != nil {
				return err
			}
		}

		return t.d.WriteArraySubqueryExprClose(t.buf)
	}

	return w, tArray, nil
}
