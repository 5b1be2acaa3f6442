package translator

import (
	"fmt"

	"github.com/shibukawa/cel2sql/ast"
)

// precedence orders CEL's binary operators for printing: comparisons bind
// tighter than && which binds tighter than ||; arithmetic binds tighter
// than comparisons, following ordinary SQL/CEL convention. Expressed as a
// fixed table since this kernel's AST carries its own operator tags rather
// than cel-go's.
func precedence(op ast.BinaryOp) int {
	switch op {
	case ast.BinOr:
		return 1
	case ast.BinAnd:
		return 2
	case ast.BinEq, ast.BinNe, ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe, ast.BinIn:
		return 3
	case ast.BinAdd, ast.BinSub:
		return 4
	case ast.BinMul, ast.BinDiv, ast.BinMod:
		return 5
	default:
		return 6
	}
}

func nonAssociative(op ast.BinaryOp) bool {
	return op == ast.BinSub || op == ast.BinDiv || op == ast.BinMod
}

// exprForOperand translates one side of a Binary, wrapping it in parentheses
// when its own operator binds looser than the parent (or, for the
// non-associative operators, equally loose on the right-hand side), so
// regenerated SQL preserves the AST's grouping regardless of how the
// original CEL text was parenthesized.
func (t *Translator) exprForOperand(node ast.Node, ctx Context, parentOp ast.BinaryOp, isRHS bool) (WriteFunc, valueType, error) {
	w, typ, err := t.expr(node, ctx)
	if err != nil {
		return nil, tUnknown, err
	}

	b, ok := node.(*ast.Binary)
	if !ok {
		return w, typ, nil
	}

	childPrec, parentPrec := precedence(b.Op), precedence(parentOp)

	needsParen := childPrec < parentPrec || (isRHS && childPrec == parentPrec && nonAssociative(parentOp))
	if !needsParen {
		return w, typ, nil
	}

	inner := w

	return func() error {
		if err := t.buf.WriteString("("); err != nil {
			return err
		}

		if err := inner(); err != nil {
			return err
		}

		return t.buf.WriteString(")")
	}, typ, nil
}

func (t *Translator) unary(n *ast.Unary, ctx Context) (WriteFunc, valueType, error) {
	switch n.Op {
	case ast.UnaryNot:
		// SQL's NOT binds looser than comparisons but tighter than AND/OR, so
		// its operand is parenthesized as if under a comparison operator.
		w, _, err := t.exprForOperand(n.Operand, CtxBoolean, ast.BinEq, false)
		if err != nil {
			return nil, tUnknown, err
		}

		return func() error {
			if err := t.buf.WriteString("NOT "); err != nil {
				return err
			}

			return w()
		}, tBool, nil
	case ast.UnaryNeg:
		w, typ, err := t.expr(n.Operand, CtxNumeric)
		if err != nil {
			return nil, tUnknown, err
		}

		if _, ok := n.Operand.(*ast.Binary); ok {
			inner := w
			w = func() error {
				if err := t.buf.WriteString("("); err != nil {
					return err
				}

				if err := inner(); err != nil {
					return err
				}

				return t.buf.WriteString(")")
			}
		}

		return func() error {
			if err := t.buf.WriteString("-"); err != nil {
				return err
			}

			return w()
		}, typ, nil
	default:
		return nil, tUnknown, fmt.Errorf("%w: unary operator %d", ErrInternal, n.Op)
	}
}

func (t *Translator) conditional(n *ast.Conditional, ctx Context) (WriteFunc, valueType, error) {
	cond, _, err := t.expr(n.Cond, CtxBoolean)
	if err != nil {
		return nil, tUnknown, err
	}

	then, thenType, err := t.expr(n.Then, ctx)
	if err != nil {
		return nil, tUnknown, err
	}

	els, _, err := t.expr(n.Else, ctx)
	if err != nil {
		return nil, tUnknown, err
	}

	w := func() error {
		if err := t.buf.WriteString("CASE WHEN "); err != nil {
			return err
		}

		if err := cond(); err != nil {
			return err
		}

		if err := t.buf.WriteString(" THEN "); err != nil {
			return err
		}

		if err := then(); err != nil {
			return err
		}

		if err := t.buf.WriteString(" ELSE "); err != nil {
			return err
		}

		if err := els(); err != nil {
			return err
		}

		return t.buf.WriteString(" END")
	}

	return w, thenType, nil
}

func (t *Translator) binary(n *ast.Binary, ctx Context) (WriteFunc, valueType, error) {
	switch n.Op {
	case ast.BinAnd, ast.BinOr:
		return t.logical(n)
	case ast.BinIn:
		return t.membership(n)
	case ast.BinEq, ast.BinNe, ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		return t.comparison(n)
	default:
		return t.arithmeticOrConcat(n)
	}
}

func (t *Translator) logical(n *ast.Binary) (WriteFunc, valueType, error) {
	lhs, _, err := t.exprForOperand(n.LHS, CtxBoolean, n.Op, false)
	if err != nil {
		return nil, tUnknown, err
	}

	rhs, _, err := t.exprForOperand(n.RHS, CtxBoolean, n.Op, true)
	if err != nil {
		return nil, tUnknown, err
	}

	sym := " AND "
	if n.Op == ast.BinOr {
		sym = " OR "
	}

	return joinWrite(t, lhs, sym, rhs), tBool, nil
}

// isTemporalOperand reports whether node syntactically denotes a timestamp
// or duration: a Literal of that kind, or a Call to the timestamp()/
// duration() constructor. §4.6.2 requires this check to run before the
// string-concatenation rule, since timestamp("...") + duration("...")
// matches both syntactically.
func isTemporalOperand(node ast.Node) bool {
	switch v := node.(type) {
	case *ast.Literal:
		return v.Kind == ast.LiteralTimestamp || v.Kind == ast.LiteralDuration
	case *ast.Call:
		return v.Receiver == nil && (v.Function == "timestamp" || v.Function == "duration")
	default:
		return false
	}
}

func (t *Translator) arithmeticOrConcat(n *ast.Binary) (WriteFunc, valueType, error) {
	// Rule 1 (§4.6.2): temporal arithmetic takes precedence over string
	// concatenation because timestamp(...)+duration(...) matches both.
	if n.Op == ast.BinAdd || n.Op == ast.BinSub {
		if isTemporalOperand(n.LHS) || isTemporalOperand(n.RHS) {
			return t.temporalArithmetic(n)
		}
	}

	lhs, lhsType, err := t.exprForOperand(n.LHS, CtxAny, n.Op, false)
	if err != nil {
		return nil, tUnknown, err
	}

	rhs, rhsType, err := t.exprForOperand(n.RHS, CtxAny, n.Op, true)
	if err != nil {
		return nil, tUnknown, err
	}

	// Also catch temporal arithmetic where operand type was inferred (not
	// just syntactically literal), e.g. a schema column typed as timestamp.
	if n.Op == ast.BinAdd || n.Op == ast.BinSub {
		if lhsType == tTimestamp || rhsType == tTimestamp || lhsType == tDuration || rhsType == tDuration {
			return t.temporalArithmeticValues(n.Op, lhs, lhsType, rhs, rhsType)
		}
	}

	// Rule 2: string concatenation.
	if n.Op == ast.BinAdd && (isStringLike(lhsType) || isStringLike(rhsType)) {
		w := func() error { return t.d.WriteStringConcat(t.buf, lhs, rhs) }
		return w, tString, nil
	}

	// Rule 3: numeric arithmetic.
	sym, err := arithmeticSymbol(n.Op)
	if err != nil {
		return nil, tUnknown, err
	}

	return joinWrite(t, lhs, sym, rhs), resultNumericType(lhsType, rhsType), nil
}

func isStringLike(t valueType) bool { return t == tString || t == tJSONText }

func resultNumericType(a, b valueType) valueType {
	if a == tDouble || b == tDouble {
		return tDouble
	}

	if a == tInt || b == tInt {
		return tInt
	}

	if a == tUint && b == tUint {
		return tUint
	}

	return tNumeric
}

func arithmeticSymbol(op ast.BinaryOp) (string, error) {
	switch op {
	case ast.BinAdd:
		return " + ", nil
	case ast.BinSub:
		return " - ", nil
	case ast.BinMul:
		return " * ", nil
	case ast.BinDiv:
		return " / ", nil
	case ast.BinMod:
		return " % ", nil
	default:
		return "", fmt.Errorf("%w: operator %d is not arithmetic", ErrInternal, op)
	}
}

func (t *Translator) temporalArithmetic(n *ast.Binary) (WriteFunc, valueType, error) {
	lhs, lhsType, err := t.expr(n.LHS, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	rhs, rhsType, err := t.expr(n.RHS, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	return t.temporalArithmeticValues(n.Op, lhs, lhsType, rhs, rhsType)
}

func (t *Translator) temporalArithmeticValues(op ast.BinaryOp, lhs WriteFunc, lhsType valueType, rhs WriteFunc, rhsType valueType) (WriteFunc, valueType, error) {
	sym := "+"
	if op == ast.BinSub {
		sym = "-"
	}

	resultType := tTimestamp
	if lhsType == tDuration && rhsType == tDuration {
		resultType = tDuration
	}

	w := func() error { return t.d.WriteTimestampArithmetic(t.buf, sym, lhs, rhs) }

	return w, resultType, nil
}

func comparisonSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.BinEq:
		return "="
	case ast.BinNe:
		return "!="
	case ast.BinLt:
		return "<"
	case ast.BinLe:
		return "<="
	case ast.BinGt:
		return ">"
	case ast.BinGe:
		return ">="
	default:
		return "?"
	}
}

// comparison lowers ==, !=, <, <=, >, >=. FieldSelect operands already reach
// t.expr's ast.FieldSelect case, which calls fieldSelectAsValue and so picks
// up scalar-extract for a JSON path's leaf (§4.6.3); this method only adds
// the two comparison-specific rewrites §4.6.2 requires: IS/IS NOT for null
// comparisons, and a numeric cast on a scalar-extracted JSON operand
// compared against a numeric literal or column.
func (t *Translator) comparison(n *ast.Binary) (WriteFunc, valueType, error) {
	lhs, lhsType, err := t.exprForOperand(n.LHS, CtxAny, n.Op, false)
	if err != nil {
		return nil, tUnknown, err
	}

	rhs, rhsType, err := t.exprForOperand(n.RHS, CtxAny, n.Op, true)
	if err != nil {
		return nil, tUnknown, err
	}

	if (n.Op == ast.BinEq || n.Op == ast.BinNe) && (lhsType == tNull || rhsType == tNull) {
		sym := " IS "
		if n.Op == ast.BinNe {
			sym = " IS NOT "
		}

		return joinWrite(t, lhs, sym, rhs), tBool, nil
	}

	if lhsType == tJSONText && isNumericType(rhsType) {
		inner := lhs
		lhs = func() error { return t.d.WriteCastToNumeric(t.buf, inner) }
	} else if rhsType == tJSONText && isNumericType(lhsType) {
		inner := rhs
		rhs = func() error { return t.d.WriteCastToNumeric(t.buf, inner) }
	}

	sym := " " + comparisonSymbol(n.Op) + " "

	return joinWrite(t, lhs, sym, rhs), tBool, nil
}

func (t *Translator) membership(n *ast.Binary) (WriteFunc, valueType, error) {
	if list, ok := n.RHS.(*ast.ListLiteral); ok {
		lhs, _, err := t.exprForOperand(n.LHS, CtxAny, n.Op, false)
		if err != nil {
			return nil, tUnknown, err
		}

		elems := make([]WriteFunc, len(list.Elements))

		for i, e := range list.Elements {
			w, _, err := t.expr(e, CtxAny)
			if err != nil {
				return nil, tUnknown, err
			}

			elems[i] = w
		}

		w := func() error {
			if err := lhs(); err != nil {
				return err
			}

			if err := t.buf.WriteString(" IN ("); err != nil {
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

			return t.buf.WriteString(")")
		}

		return w, tBool, nil
	}

	lhs, _, err := t.expr(n.LHS, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	rhs, rhsType, err := t.expr(n.RHS, CtxAny)
	if err != nil {
		return nil, tUnknown, err
	}

	switch rhsType {
	case tArray:
		w := func() error { return t.d.WriteArrayMembership(t.buf, lhs, rhs) }
		return w, tBool, nil
	case tJSON, tJSONText:
		// §9 Open Question (a): JSON-array element membership is
		// under-specified across dialects; surface UnsupportedFeature
		// rather than guess at a rewrite.
		return nil, tUnknown, fmt.Errorf("%w: membership test against a JSON value", ErrUnsupportedFeature)
	default:
		// Unresolved receiver type (e.g. a plain unqualified column of
		// unknown array-ness): degrade to the dialect's array-membership
		// primitive, since that is the only "in" shape SQL's own operators
		// don't already cover via the ListLiteral branch above.
		w := func() error { return t.d.WriteArrayMembership(t.buf, lhs, rhs) }
		return w, tBool, nil
	}
}

// joinWrite writes lhs, then the literal separator sep, then rhs.
func joinWrite(t *Translator, lhs WriteFunc, sep string, rhs WriteFunc) WriteFunc {
	return func() error {
		if err := lhs(); err != nil {
			return err
		}

		if err := t.buf.WriteString(sep); err != nil {
			return err
		}

		return rhs()
	}
}
