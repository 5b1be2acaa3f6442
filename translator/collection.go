package translator

import (
	"fmt"

	"github.com/shibukawa/cel2sql/ast"
)

// listLiteral renders a CEL list constructor via the dialect's array-literal
// open/close wrappers, each element translated in "any" context.
func (t *Translator) listLiteral(n *ast.ListLiteral) (WriteFunc, valueType, error) {
	elems := make([]WriteFunc, len(n.Elements))

	for i, e := range n.Elements {
		w, _, err := t.expr(e, CtxAny)
		if err != nil {
			return nil, tUnknown, err
		}

		elems[i] = w
	}

	w := func() error {
		if err := t.d.WriteArrayLiteralOpen(t.buf); err != nil {
			return err
		}

		for i, e := range elems {
			if i > 0 {
				if err := t.buf.WriteString(", "); err != nil {
					return err
				}
			}

			if err := e(); err != nil {
				return err
			}
		}

		return t.d.WriteArrayLiteralClose(t.buf)
	}

	return w, tArray, nil
}

// mapLiteral renders a CEL map constructor as a dialect struct/row
// constructor keyed positionally; SQL has no anonymous-map literal, so this
// degrades to the same shape as StructLiteral (§3.1 groups Map/Struct
// together for exactly this reason).
func (t *Translator) mapLiteral(n *ast.MapLiteral) (WriteFunc, valueType, error) {
	entries := make([]WriteFunc, len(n.Entries))

	for i, entry := range n.Entries {
		v, _, err := t.expr(entry.Value, CtxAny)
		if err != nil {
			return nil, tUnknown, err
		}

		entries[i] = v
	}

	w := func() error {
		if err := t.d.WriteStructOpen(t.buf); err != nil {
			return err
		}

		for i, e := range entries {
			if i > 0 {
				if err := t.buf.WriteString(", "); err != nil {
					return err
				}
			}

			if err := e(); err != nil {
				return err
			}
		}

		return t.d.WriteStructClose(t.buf)
	}

	return w, tMap, nil
}

// structLiteral renders a CEL typed-struct constructor the same way as
// mapLiteral: SQL has no notion of the CEL type name, only positional field
// values (§3.1).
func (t *Translator) structLiteral(n *ast.StructLiteral) (WriteFunc, valueType, error) {
	entries := make([]WriteFunc, len(n.Entries))

	for i, entry := range n.Entries {
		v, _, err := t.expr(entry.Value, CtxAny)
		if err != nil {
			return nil, tUnknown, err
		}

		entries[i] = v
	}

	w := func() error {
		if err := t.d.WriteStructOpen(t.buf); err != nil {
			return err
		}

		for i, e := range entries {
			if i > 0 {
				if err := t.buf.WriteString(", "); err != nil {
					return err
				}
			}

			if err := e(); err != nil {
				return err
			}
		}

		return t.d.WriteStructClose(t.buf)
	}

	return w, tMap, nil
}

// index translates receiver[key]: an integer key against an array/list value
// is list indexing (0-based CEL to dialect-native indexing is the dialect's
// job, §4.5); a string key against a JSON value is a JSON path step,
// unified with FieldSelect's JSON handling by routing through
// translateJSONPath. A string key against a non-JSON receiver has no SQL
// shape this kernel defines and is rejected.
func (t *Translator) index(n *ast.Index, ctx Context) (WriteFunc, valueType, error) {
	if fs, ok := n.Receiver.(*ast.FieldSelect); ok {
		if lit, ok := n.Key.(*ast.Literal); ok && lit.Kind == ast.LiteralString {
			return t.indexJSONFieldSelect(fs, lit)
		}

		// Any other key against a FieldSelect receiver still needs the
		// receiver form (subtree-extract) rather than the leaf scalar-extract
		// fieldSelectAsValue would apply, since the result is indexed further.
		recv, recvType, err := t.fieldSelectAsReceiver(fs)
		if err != nil {
			return nil, tUnknown, err
		}

		return t.indexValue(n, recv, recvType)
	}

	recv, recvType, err := t.expr(n.Receiver, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	return t.indexValue(n, recv, recvType)
}

func (t *Translator) indexValue(n *ast.Index, recv WriteFunc, recvType valueType) (WriteFunc, valueType, error) {
	if lit, ok := n.Key.(*ast.Literal); ok && lit.Kind == ast.LiteralString {
		if recvType != tJSON {
			return nil, tUnknown, fmt.Errorf("%w: string index into a non-JSON value", ErrTypeMismatch)
		}

		key, _ := lit.Value.(string)
		w := func() error { return t.d.WriteJSONFieldAccess(t.buf, recv, key, true) }

		return w, tJSONText, nil
	}

	keyWrite, keyType, err := t.expr(n.Key, CtxNumeric)
	if err != nil {
		return nil, tUnknown, err
	}

	if !isNumericType(keyType) && keyType != tUnknown {
		return nil, tUnknown, fmt.Errorf("%w: list index must be an integer", ErrTypeMismatch)
	}

	if lit, ok := n.Key.(*ast.Literal); ok && (lit.Kind == ast.LiteralInt || lit.Kind == ast.LiteralUint) {
		idx := literalIntValue(lit)
		w := func() error { return t.d.WriteListIndexConst(t.buf, recv, idx) }

		return w, tUnknown, nil
	}

	w := func() error { return t.d.WriteListIndex(t.buf, recv, keyWrite) }

	return w, tUnknown, nil
}

// indexJSONFieldSelect handles the common case of a bracketed JSON key
// applied directly to a resolved FieldSelect chain (e.g. usr.metadata["role"]),
// reusing the chain resolver so a JSON column reached by dot or bracket
// notation lowers identically.
func (t *Translator) indexJSONFieldSelect(fs *ast.FieldSelect, key *ast.Literal) (WriteFunc, valueType, error) {
	base, baseType, err := t.fieldSelectAsReceiver(fs)
	if err != nil {
		return nil, tUnknown, err
	}

	if baseType != tJSON {
		return nil, tUnknown, fmt.Errorf("%w: string index into a non-JSON value", ErrTypeMismatch)
	}

	name, _ := key.Value.(string)
	w := func() error { return t.d.WriteJSONFieldAccess(t.buf, base, name, true) }

	return w, tJSONText, nil
}

func literalIntValue(lit *ast.Literal) int {
	switch v := lit.Value.(type) {
	case int64:
		return int(v)
	case uint64:
		return int(v)
	default:
		return 0
	}
}
