package celadapt

import ourast "github.com/shibukawa/cel2sql/ast"

// detectMacro recognizes one of CEL's five comprehension macros from its
// canonical expansion shape (accumulator init / loop step / result), the
// same shape cel-go's own parser produces and that its unparser
// pattern-matches back against to recover macro syntax. CEL exposes no
// other surface syntax that produces a Comprehension expression, so any
// shape that doesn't match one of these five is rejected as unsupported
// rather than guessed at.
//
//	all(x, p):        __result__ = true;  step = __result__ && p;          result = __result__
//	exists(x, p):     __result__ = false; step = __result__ || p;          result = __result__
//	exists_one(x, p): __result__ = 0;     step = p ? __result__+1 : __result__; result = __result__ == 1
//	filter(x, p):     __result__ = [];    step = p ? __result__+[x] : __result__; result = __result__
//	map(x, f):        __result__ = [];    step = __result__ + [f];             result = __result__
//	map(x, p, f):     __result__ = [];    step = p ? __result__+[f] : __result__; result = __result__
func detectMacro(iterVar, accuVar string, accuInit, loopStep, result ourast.Node) (kind ourast.ComprehensionKind, predicate, mapResult ourast.Node, ok bool) {
	switch {
	case isBoolLiteral(accuInit, true):
		if pred, ok := unwrapAnd(loopStep, accuVar); ok && isIdentNamed(result, accuVar) {
			return ourast.ComprehensionAll, pred, nil, true
		}
	case isBoolLiteral(accuInit, false):
		if pred, ok := unwrapOr(loopStep, accuVar); ok && isIdentNamed(result, accuVar) {
			return ourast.ComprehensionExists, pred, nil, true
		}
	case isIntLiteral(accuInit, 0):
		if cond, ok := unwrapCountTernary(loopStep, accuVar); ok && isEqualsOne(result, accuVar) {
			return ourast.ComprehensionExistsOne, cond, nil, true
		}
	case isEmptyList(accuInit):
		if !isIdentNamed(result, accuVar) {
			break
		}

		if elem, ok := unwrapAppend(loopStep, accuVar); ok {
			return ourast.ComprehensionMap, nil, elem, true
		}

		if cond, thenElem, ok := unwrapConditionalAppend(loopStep, accuVar); ok {
			if isIdentNamed(thenElem, iterVar) {
				return ourast.ComprehensionFilter, cond, nil, true
			}

			return ourast.ComprehensionMap, cond, thenElem, true
		}
	}

	return 0, nil, nil, false
}

func isIdentNamed(n ourast.Node, name string) bool {
	id, ok := n.(*ourast.Identifier)
	return ok && id.Name == name
}

func isBoolLiteral(n ourast.Node, want bool) bool {
	lit, ok := n.(*ourast.Literal)
	if !ok || lit.Kind != ourast.LiteralBool {
		return false
	}

	v, ok := lit.Value.(bool)

	return ok && v == want
}

func isIntLiteral(n ourast.Node, want int64) bool {
	lit, ok := n.(*ourast.Literal)
	if !ok || lit.Kind != ourast.LiteralInt {
		return false
	}

	v, ok := lit.Value.(int64)

	return ok && v == want
}

func isEmptyList(n ourast.Node) bool {
	l, ok := n.(*ourast.ListLiteral)
	return ok && len(l.Elements) == 0
}

// unwrapAppend matches `accuVar + [elem]` and returns elem.
func unwrapAppend(n ourast.Node, accuVar string) (ourast.Node, bool) {
	b, ok := n.(*ourast.Binary)
	if !ok || b.Op != ourast.BinAdd || !isIdentNamed(b.LHS, accuVar) {
		return nil, false
	}

	list, ok := b.RHS.(*ourast.ListLiteral)
	if !ok || len(list.Elements) != 1 {
		return nil, false
	}

	return list.Elements[0], true
}

// unwrapOr matches `accuVar || pred` and returns pred.
func unwrapOr(n ourast.Node, accuVar string) (ourast.Node, bool) {
	b, ok := n.(*ourast.Binary)
	if !ok || b.Op != ourast.BinOr || !isIdentNamed(b.LHS, accuVar) {
		return nil, false
	}

	return b.RHS, true
}

// unwrapAnd matches `accuVar && pred` and returns pred.
func unwrapAnd(n ourast.Node, accuVar string) (ourast.Node, bool) {
	b, ok := n.(*ourast.Binary)
	if !ok || b.Op != ourast.BinAnd || !isIdentNamed(b.LHS, accuVar) {
		return nil, false
	}

	return b.RHS, true
}

// unwrapCountTernary matches `pred ? accuVar+1 : accuVar` and returns pred.
func unwrapCountTernary(n ourast.Node, accuVar string) (ourast.Node, bool) {
	cond, ok := n.(*ourast.Conditional)
	if !ok {
		return nil, false
	}

	thenIncr, ok := cond.Then.(*ourast.Binary)
	if !ok || thenIncr.Op != ourast.BinAdd || !isIdentNamed(thenIncr.LHS, accuVar) || !isIntLiteral(thenIncr.RHS, 1) {
		return nil, false
	}

	if !isIdentNamed(cond.Else, accuVar) {
		return nil, false
	}

	return cond.Cond, true
}

// unwrapConditionalAppend matches `pred ? accuVar+[elem] : accuVar` and
// returns pred and elem.
func unwrapConditionalAppend(n ourast.Node, accuVar string) (predicate, elem ourast.Node, ok bool) {
	cond, ok := n.(*ourast.Conditional)
	if !ok {
		return nil, nil, false
	}

	elem, ok = unwrapAppend(cond.Then, accuVar)
	if !ok {
		return nil, nil, false
	}

	if !isIdentNamed(cond.Else, accuVar) {
		return nil, nil, false
	}

	return cond.Cond, elem, true
}

// isEqualsOne matches `accuVar == 1` (either operand order).
func isEqualsOne(n ourast.Node, accuVar string) bool {
	b, ok := n.(*ourast.Binary)
	if !ok || b.Op != ourast.BinEq {
		return false
	}

	if isIdentNamed(b.LHS, accuVar) && isIntLiteral(b.RHS, 1) {
		return true
	}

	return isIdentNamed(b.RHS, accuVar) && isIntLiteral(b.LHS, 1)
}
