// Package celadapt lowers a parsed/checked cel-go AST into the cel2sql/ast
// tagged union the translator walks. It is the one place that speaks the
// cel-go expression representation; everything downstream only sees
// ast.Node. The lowering walk dispatches on cel-go's ExprKind, mirroring
// the same kind switch cel-go's own unparser uses internally.
package celadapt

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"

	ourast "github.com/shibukawa/cel2sql/ast"
)

// ErrMalformedAST indicates the cel-go AST is missing structure Lower
// requires (a nil AST or native representation, or a nil root expression).
var ErrMalformedAST = errors.New("celadapt: malformed CEL AST")

// ErrUnsupportedExpr indicates a CEL construct outside the surface Lower
// knows how to express: a raw (non-macro) comprehension, or a literal kind
// with no SQL-relevant representation.
var ErrUnsupportedExpr = errors.New("celadapt: unsupported CEL expression")

// ErrSyntax indicates the source text itself is not valid CEL, caught by
// the parser before Lower ever sees an AST.
var ErrSyntax = errors.New("celadapt: CEL syntax error")

var binaryOps = map[string]ourast.BinaryOp{
	operators.Add:           ourast.BinAdd,
	operators.Subtract:      ourast.BinSub,
	operators.Multiply:      ourast.BinMul,
	operators.Divide:        ourast.BinDiv,
	operators.Modulo:        ourast.BinMod,
	operators.Equals:        ourast.BinEq,
	operators.NotEquals:     ourast.BinNe,
	operators.Less:          ourast.BinLt,
	operators.LessEquals:    ourast.BinLe,
	operators.Greater:       ourast.BinGt,
	operators.GreaterEquals: ourast.BinGe,
	operators.LogicalAnd:    ourast.BinAnd,
	operators.LogicalOr:     ourast.BinOr,
	operators.In:            ourast.BinIn,
	operators.OldIn:         ourast.BinIn,
}

// Lower converts a parsed or type-checked cel.Ast into an ourast.Node tree.
func Lower(a *cel.Ast) (ourast.Node, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil AST", ErrMalformedAST)
	}

	native := a.NativeRep()
	if native == nil {
		return nil, fmt.Errorf("%w: no native representation", ErrMalformedAST)
	}

	root := native.Expr()
	if root == nil {
		return nil, fmt.Errorf("%w: empty root expression", ErrMalformedAST)
	}

	l := &lowerer{info: native.SourceInfo()}

	return l.expr(root)
}

type lowerer struct {
	info *celast.SourceInfo
}

func (l *lowerer) position(id int64) ourast.Position {
	if l.info == nil {
		return ourast.Position{}
	}

	loc := l.info.GetStartLocation(id)
	if loc == nil {
		return ourast.Position{}
	}

	return ourast.Position{Line: loc.Line(), Column: loc.Column()}
}

func (l *lowerer) expr(e celast.Expr) (ourast.Node, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil expression node", ErrMalformedAST)
	}

	pos := l.position(e.ID())

	switch e.Kind() {
	case celast.LiteralKind:
		return l.literal(e, pos)
	case celast.IdentKind:
		return ourast.NewIdentifier(pos, e.AsIdent()), nil
	case celast.SelectKind:
		return l.selectExpr(e, pos)
	case celast.CallKind:
		return l.call(e, pos)
	case celast.ListKind:
		return l.list(e, pos)
	case celast.MapKind:
		return l.mapLiteral(e, pos)
	case celast.StructKind:
		return l.structLiteral(e, pos)
	case celast.ComprehensionKind:
		return l.comprehension(e, pos)
	default:
		return nil, fmt.Errorf("%w: expression kind %d", ErrUnsupportedExpr, e.Kind())
	}
}

func (l *lowerer) literal(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	val := e.AsLiteral()
	if val == nil {
		return ourast.NewLiteral(pos, ourast.LiteralNull, nil), nil
	}

	switch v := val.Value().(type) {
	case nil:
		return ourast.NewLiteral(pos, ourast.LiteralNull, nil), nil
	case bool:
		return ourast.NewLiteral(pos, ourast.LiteralBool, v), nil
	case int64:
		return ourast.NewLiteral(pos, ourast.LiteralInt, v), nil
	case uint64:
		return ourast.NewLiteral(pos, ourast.LiteralUint, v), nil
	case float64:
		return ourast.NewLiteral(pos, ourast.LiteralDouble, v), nil
	case string:
		return ourast.NewLiteral(pos, ourast.LiteralString, v), nil
	case []byte:
		return ourast.NewLiteral(pos, ourast.LiteralBytes, v), nil
	default:
		return nil, fmt.Errorf("%w: literal of native type %T", ErrUnsupportedExpr, v)
	}
}

func (l *lowerer) selectExpr(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	sel := e.AsSelect()

	operand, err := l.expr(sel.Operand())
	if err != nil {
		return nil, err
	}

	field := ourast.NewFieldSelect(pos, operand, sel.FieldName())

	if sel.IsTestOnly() {
		// has(operand.field): CEL's has() macro expands directly to a
		// test-only Select at parse time rather than a Call.
		return ourast.NewCall(pos, nil, "has", []ourast.Node{field}), nil
	}

	return field, nil
}

func (l *lowerer) call(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	c := e.AsCall()
	fn := c.FunctionName()

	args, err := l.exprs(c.Args())
	if err != nil {
		return nil, err
	}

	switch fn {
	case operators.LogicalNot:
		return ourast.NewUnary(pos, ourast.UnaryNot, args[0]), nil
	case operators.Negate:
		return ourast.NewUnary(pos, ourast.UnaryNeg, args[0]), nil
	case operators.Conditional:
		return ourast.NewConditional(pos, args[0], args[1], args[2]), nil
	case operators.Index:
		return ourast.NewIndex(pos, args[0], args[1]), nil
	}

	if op, ok := binaryOps[fn]; ok {
		return ourast.NewBinary(pos, op, args[0], args[1]), nil
	}

	var receiver ourast.Node

	if c.IsMemberFunction() {
		receiver, err = l.expr(c.Target())
		if err != nil {
			return nil, err
		}
	}

	return ourast.NewCall(pos, receiver, fn, args), nil
}

func (l *lowerer) exprs(in []celast.Expr) ([]ourast.Node, error) {
	out := make([]ourast.Node, len(in))

	for i, e := range in {
		n, err := l.expr(e)
		if err != nil {
			return nil, err
		}

		out[i] = n
	}

	return out, nil
}

func (l *lowerer) list(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	elements, err := l.exprs(e.AsList().Elements())
	if err != nil {
		return nil, err
	}

	return ourast.NewListLiteral(pos, elements), nil
}

func (l *lowerer) mapLiteral(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	entries := e.AsMap().Entries()
	out := make([]ourast.MapEntry, len(entries))

	for i, entry := range entries {
		me := entry.AsMapEntry()

		key, err := l.expr(me.Key())
		if err != nil {
			return nil, err
		}

		value, err := l.expr(me.Value())
		if err != nil {
			return nil, err
		}

		out[i] = ourast.MapEntry{Key: key, Value: value}
	}

	return ourast.NewMapLiteral(pos, out), nil
}

func (l *lowerer) structLiteral(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	s := e.AsStruct()
	fields := s.Fields()
	out := make([]ourast.MapEntry, len(fields))

	for i, f := range fields {
		sf := f.AsStructField()

		value, err := l.expr(sf.Value())
		if err != nil {
			return nil, err
		}

		key := ourast.NewLiteral(l.position(f.ID()), ourast.LiteralString, sf.Name())
		out[i] = ourast.MapEntry{Key: key, Value: value}
	}

	return ourast.NewStructLiteral(pos, s.TypeName(), out), nil
}

func (l *lowerer) comprehension(e celast.Expr, pos ourast.Position) (ourast.Node, error) {
	c := e.AsComprehension()

	rng, err := l.expr(c.IterRange())
	if err != nil {
		return nil, err
	}

	accuInit, err := l.expr(c.AccuInit())
	if err != nil {
		return nil, err
	}

	loopStep, err := l.expr(c.LoopStep())
	if err != nil {
		return nil, err
	}

	result, err := l.expr(c.Result())
	if err != nil {
		return nil, err
	}

	iterVar := c.IterVar()
	accuVar := c.AccuVar()

	kind, predicate, mapResult, ok := detectMacro(iterVar, accuVar, accuInit, loopStep, result)
	if !ok {
		return nil, fmt.Errorf("%w: comprehension is not a recognized macro expansion", ErrUnsupportedExpr)
	}

	return ourast.NewComprehension(pos, kind, rng, iterVar, predicate, mapResult), nil
}
