package ast

// Constructors for every Node variant. base is unexported so the tagged
// union stays closed to this package's switch statements (translator,
// advisor); callers outside the package — principally celadapt — build nodes
// through these functions instead of composite literals.

func NewLiteral(pos Position, kind LiteralKind, value any) *Literal {
	return &Literal{base: base{pos}, Kind: kind, Value: value}
}

func NewIdentifier(pos Position, name string) *Identifier {
	return &Identifier{base: base{pos}, Name: name}
}

func NewFieldSelect(pos Position, receiver Node, field string) *FieldSelect {
	return &FieldSelect{base: base{pos}, Receiver: receiver, Field: field}
}

func NewIndex(pos Position, receiver, key Node) *Index {
	return &Index{base: base{pos}, Receiver: receiver, Key: key}
}

func NewCall(pos Position, receiver Node, function string, args []Node) *Call {
	return &Call{base: base{pos}, Receiver: receiver, Function: function, Args: args}
}

func NewUnary(pos Position, op UnaryOp, operand Node) *Unary {
	return &Unary{base: base{pos}, Op: op, Operand: operand}
}

func NewBinary(pos Position, op BinaryOp, lhs, rhs Node) *Binary {
	return &Binary{base: base{pos}, Op: op, LHS: lhs, RHS: rhs}
}

func NewConditional(pos Position, cond, then, els Node) *Conditional {
	return &Conditional{base: base{pos}, Cond: cond, Then: then, Else: els}
}

func NewListLiteral(pos Position, elements []Node) *ListLiteral {
	return &ListLiteral{base: base{pos}, Elements: elements}
}

func NewMapLiteral(pos Position, entries []MapEntry) *MapLiteral {
	return &MapLiteral{base: base{pos}, Entries: entries}
}

func NewStructLiteral(pos Position, typeName string, entries []MapEntry) *StructLiteral {
	return &StructLiteral{base: base{pos}, TypeName: typeName, Entries: entries}
}

func NewComprehension(pos Position, kind ComprehensionKind, rng Node, iterVar string, predicate, result Node) *Comprehension {
	return &Comprehension{
		base:      base{pos},
		Kind:      kind,
		Range:     rng,
		IterVar:   iterVar,
		Predicate: predicate,
		Result:    result,
	}
}
