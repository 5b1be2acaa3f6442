// Package ast defines the canonical tagged-union tree that the translation
// kernel walks. Nodes are produced upstream (see the celadapt package) and
// are otherwise opaque to the kernel beyond their variant and fields.
package ast

// Position carries optional source-location metadata for diagnostics. Zero
// value means "unknown position" and is always valid.
type Position struct {
	Line   int
	Column int
}

// Node is the closed set of AST variants. The unexported marker method
// keeps the set closed to this package so translator code can switch
// exhaustively without a default case hiding a missing variant.
type Node interface {
	node()
	Pos() Position
}

type base struct {
	Position Position
}

func (base) node() {}

func (b base) Pos() Position { return b.Position }

// LiteralKind enumerates the CEL primitive kinds a Literal may hold.
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralBool
	LiteralInt
	LiteralUint
	LiteralDouble
	LiteralString
	LiteralBytes
	LiteralDuration
	LiteralTimestamp
)

// Literal is a constant value of one of the CEL primitive kinds.
type Literal struct {
	base
	Kind  LiteralKind
	Value any
}

// Identifier is an unqualified name, resolved against the Schema Registry's
// top-level tables or a dialect-reserved literal (true/false/null).
type Identifier struct {
	base
	Name string
}

// FieldSelect is receiver.Field.
type FieldSelect struct {
	base
	Receiver Node
	Field    string
}

// Index is receiver[Index] — integer index for lists, string key for
// maps/JSON.
type Index struct {
	base
	Receiver Node
	Key      Node
}

// Call is a free function call (Receiver == nil) or a method call bound to
// Receiver.
type Call struct {
	base
	Receiver Node // nil for free functions
	Function string
	Args     []Node
}

// UnaryOp enumerates CEL's two unary operators.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryNeg
)

// Unary is !operand or -operand.
type Unary struct {
	base
	Op      UnaryOp
	Operand Node
}

// BinaryOp enumerates CEL's binary operators.
type BinaryOp int

const (
	BinEq BinaryOp = iota
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinMod
	BinIn
)

// Binary is lhs Op rhs.
type Binary struct {
	base
	Op  BinaryOp
	LHS Node
	RHS Node
}

// Conditional is cond ? then : else.
type Conditional struct {
	base
	Cond Node
	Then Node
	Else Node
}

// ListLiteral is [e1, e2, ...].
type ListLiteral struct {
	base
	Elements []Node
}

// MapEntry is one key/value pair of a MapLiteral or StructLiteral.
type MapEntry struct {
	Key   Node
	Value Node
}

// MapLiteral is {k1: v1, k2: v2, ...}.
type MapLiteral struct {
	base
	Entries []MapEntry
}

// StructLiteral is TypeName{field1: v1, ...}.
type StructLiteral struct {
	base
	TypeName string
	Entries  []MapEntry
}

// ComprehensionKind enumerates the five CEL macros after lowering.
type ComprehensionKind int

const (
	ComprehensionExists ComprehensionKind = iota
	ComprehensionAll
	ComprehensionExistsOne
	ComprehensionMap
	ComprehensionFilter
)

// Comprehension is the lowered form of a CEL macro: iterate IterVar over
// Range, evaluating Predicate (for exists/all/exists_one/filter) or Result
// (for map) per element. Only Kind, Range, IterVar and Predicate/Result are
// kept; CEL's accumulator and loop-step expressions are not carried over,
// since lowering to SQL needs none of them (§4.6.5).
type Comprehension struct {
	base
	Kind      ComprehensionKind
	Range     Node
	IterVar   string
	Predicate Node // P(x): used by Exists/All/ExistsOne/Filter
	Result    Node // f(x): used by Map
}
