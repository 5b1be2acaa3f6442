package translator

import (
	"fmt"

	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/schema"
)

// identifier resolves a bare name: a comprehension loop variable currently in
// scope, the CEL boolean/null keywords (already lowered to Literal by
// celadapt, so not seen here), or — per I1's degrading companion, P7 — any
// other name, which is emitted as a plain column reference. The registry is
// not consulted here: a bare identifier is never itself a table qualifier,
// only the root of a FieldSelect chain is (§4.6.3).
func (t *Translator) identifier(n *ast.Identifier) (WriteFunc, valueType, error) {
	for _, v := range t.iterScope {
		if v == n.Name {
			return t.lit(n.Name), tUnknown, nil
		}
	}

	if err := t.d.ValidateFieldName(n.Name); err != nil {
		return nil, tUnknown, err
	}

	return t.lit(n.Name), tUnknown, nil
}

// chain is the result of walking a dotted FieldSelect run back to its root.
type chain struct {
	root     ast.Node
	segments []string
}

// collectChain flattens a run of nested FieldSelects into its root expression
// and an ordered list of field names, so the walker can decide the whole
// chain's regime (scalar/json/array) from one lookup instead of one per hop.
func collectChain(n ast.Node) chain {
	fs, ok := n.(*ast.FieldSelect)
	if !ok {
		return chain{root: n}
	}

	inner := collectChain(fs.Receiver)
	inner.segments = append(inner.segments, fs.Field)

	return inner
}

// fieldSelectAsValue translates a FieldSelect used as a value: the JSON case
// picks scalar-extract for its final path segment (§4.6.3).
func (t *Translator) fieldSelectAsValue(n *ast.FieldSelect) (WriteFunc, valueType, error) {
	return t.translateChain(n, false)
}

// fieldSelectAsReceiver translates a FieldSelect that is itself the receiver
// of further indexing (another FieldSelect, an Index, a macro range, or
// has()'s operand): the JSON case picks subtree-extract for its final
// segment so the caller can keep descending into it (§4.6.3, §4.6.4).
func (t *Translator) fieldSelectAsReceiver(n *ast.FieldSelect) (WriteFunc, valueType, error) {
	return t.translateChain(n, true)
}

func (t *Translator) translateChain(n *ast.FieldSelect, asReceiver bool) (WriteFunc, valueType, error) {
	c := collectChain(n)

	ident, isIdent := c.root.(*ast.Identifier)
	if !isIdent {
		return t.translateOpaqueChain(c)
	}

	sch, tableFound := t.registry.Table(ident.Name)
	if !tableFound {
		return t.translateOpaqueChain(c)
	}

	firstField := c.segments[0]

	field, found := sch.Field(firstField)
	if !found {
		// P7: schema-less degradation — no metadata for this field, so it is
		// treated as a plain column and no further JSON rewrite fires.
		if len(c.segments) > 1 {
			return nil, tUnknown, fmt.Errorf("%w: %q has no schema entry and cannot be chained further", ErrNonJSONPath, firstField)
		}

		return t.qualifiedColumn(ident.Name, firstField), tUnknown, nil
	}

	switch field.Kind {
	case schema.FieldScalar:
		if len(c.segments) > 1 {
			return nil, tUnknown, fmt.Errorf("%w: %q is a scalar field", ErrNonJSONPath, firstField)
		}

		return t.qualifiedColumn(ident.Name, firstField), tUnknown, nil

	case schema.FieldArray:
		if len(c.segments) > 1 {
			return nil, tUnknown, fmt.Errorf("%w: %q is an array field and cannot be dot-chained", ErrNonJSONPath, firstField)
		}

		return t.qualifiedColumn(ident.Name, firstField), tArray, nil

	case schema.FieldJSON:
		return t.translateJSONPath(t.qualifiedColumn(ident.Name, firstField), field, c.segments[1:], asReceiver)

	default:
		return nil, tUnknown, fmt.Errorf("%w: unrecognized field kind %d", ErrInternal, field.Kind)
	}
}

// translateJSONPath walks the remaining path segments of a JSON field,
// emitting subtree-extract for every intermediate step and, for the final
// step, scalar- or subtree-extract depending on how the whole chain is used
// (§4.6.3). If there are no remaining segments the base JSON value itself
// (with no path applied) is the result.
func (t *Translator) translateJSONPath(base WriteFunc, field schema.FieldSchema, segments []string, asReceiver bool) (WriteFunc, valueType, error) {
	if len(segments) == 0 {
		return base, tJSON, nil
	}

	cur := base
	for i, seg := range segments {
		isLast := i == len(segments)-1
		scalarExtract := isLast && !asReceiver
		segCopy, curCopy := seg, cur

		cur = func() error {
			return t.d.WriteJSONFieldAccess(t.buf, curCopy, segCopy, scalarExtract)
		}
	}

	resultType := tJSON
	if !asReceiver {
		resultType = tJSONText // scalar-extracted JSON values arrive as text; §4.6.2 casts to numeric on demand
	}

	return cur, resultType, nil
}

// translateOpaqueChain handles a FieldSelect chain whose root is not a
// table-qualified identifier: a map/struct-valued CEL expression. There is
// no schema to consult, so every hop is rendered as a plain "." accessor;
// this exercises SQL row/struct field access on dialects that support it
// (PostgreSQL/DuckDB ROW, BigQuery STRUCT) and is a reasonable degradation
// elsewhere.
func (t *Translator) translateOpaqueChain(c chain) (WriteFunc, valueType, error) {
	rootWrite, _, err := t.expr(c.root, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	cur := rootWrite

	for _, seg := range c.segments {
		if err := t.d.ValidateFieldName(seg); err != nil {
			return nil, tUnknown, err
		}

		segCopy, curCopy := seg, cur
		cur = func() error {
			if err := curCopy(); err != nil {
				return err
			}

			return t.buf.WriteString("." + segCopy)
		}
	}

	return cur, tUnknown, nil
}

func (t *Translator) qualifiedColumn(table, field string) WriteFunc {
	return func() error {
		if err := t.buf.WriteString(t.d.QuoteIdentifier(table)); err != nil {
			return err
		}

		if err := t.buf.WriteString("."); err != nil {
			return err
		}

		return t.buf.WriteString(t.d.QuoteIdentifier(field))
	}
}

// hasCall translates has(operand): scalar and array fields, and a JSON
// column selected as a whole, become IS NOT NULL (P9); a key under a JSON
// column (at any depth) uses the dialect's key-existence primitive (§4.6.4).
func (t *Translator) hasCall(operand ast.Node) (WriteFunc, valueType, error) {
	fs, ok := operand.(*ast.FieldSelect)
	if !ok {
		w, _, err := t.expr(operand, CtxAny)
		if err != nil {
			return nil, tUnknown, err
		}

		return func() error {
			if err := w(); err != nil {
				return err
			}

			return t.buf.WriteString(" IS NOT NULL")
		}, tBool, nil
	}

	c := collectChain(fs)

	ident, isIdent := c.root.(*ast.Identifier)
	if !isIdent {
		return t.hasFallback(fs)
	}

	sch, tableFound := t.registry.Table(ident.Name)
	if !tableFound {
		return t.hasFallback(fs)
	}

	firstField := c.segments[0]

	field, found := sch.Field(firstField)
	if !found || field.Kind == schema.FieldScalar || field.Kind == schema.FieldArray {
		return t.hasFallback(fs)
	}

	// JSON field: everything but the final path segment is subtree-extract,
	// then the existence test applies to the final key.
	base := t.qualifiedColumn(ident.Name, firstField)
	pathSegments := c.segments[1:]

	if len(pathSegments) == 0 {
		return func() error {
			if err := base(); err != nil {
				return err
			}

			return t.buf.WriteString(" IS NOT NULL")
		}, tBool, nil
	}

	baseWrite, _, err := t.translateJSONPath(base, field, pathSegments[:len(pathSegments)-1], true)
	if err != nil {
		return nil, tUnknown, err
	}

	lastKey := pathSegments[len(pathSegments)-1]
	baseCopy := baseWrite

	w := func() error {
		return t.d.WriteJSONExistence(t.buf, field.IsBinaryJSON, lastKey, baseCopy)
	}

	return w, tBool, nil
}

func (t *Translator) hasFallback(fs *ast.FieldSelect) (WriteFunc, valueType, error) {
	w, _, err := t.fieldSelectAsValue(fs)
	if err != nil {
		return nil, tUnknown, err
	}

	return func() error {
		if err := w(); err != nil {
			return err
		}

		return t.buf.WriteString(" IS NOT NULL")
	}, tBool, nil
}
