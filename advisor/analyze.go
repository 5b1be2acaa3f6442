package advisor

import (
	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/schema"
)

// Analyze walks root a second time, independent of translation, recording
// index-worthy access patterns and turning them into recommendations scoped
// to d. registry may be nil — every lookup then degrades to "not a JSON or
// array field" and only PatternComparison/PatternRegexMatch/
// PatternArrayMembership/PatternArrayComprehension (which need no schema)
// can ever be detected, per P7's schema-less degradation.
func Analyze(root ast.Node, registry *schema.Registry, d dialect.Name) ([]Recommendation, error) {
	w := &walker{registry: registry, patterns: make(map[string]indexPattern)}
	w.walk(root)

	mapping := advisors[d]
	if mapping == nil {
		return nil, nil
	}

	best := make(map[string]Recommendation)

	for _, p := range w.patterns {
		advice := mapping[p.pattern]
		if advice == nil {
			continue
		}

		rec := Recommendation{
			Table:      p.table,
			Column:     p.column,
			IndexType:  advice.indexType,
			Expression: p.column,
			Reason:     advice.reason,
		}

		existing, ok := best[p.key()]
		if !ok || rec.IndexType.priority() > existing.IndexType.priority() {
			best[p.key()] = rec
		}
	}

	out := make([]Recommendation, 0, len(best))
	for _, rec := range best {
		out = append(out, rec)
	}

	return out, nil
}

type walker struct {
	registry *schema.Registry
	patterns map[string]indexPattern
}

// add records pattern, letting a higher-priority pattern already seen for
// the same column keep its place — mirrors _analysis.py's _add_pattern.
func (w *walker) add(p indexPattern) {
	existing, ok := w.patterns[p.key()]
	if !ok || p.pattern.priority() > existing.pattern.priority() {
		w.patterns[p.key()] = p
	}
}

// walk dispatches on root's concrete type and recurses into every child
// node, regardless of whether the node itself is pattern-worthy — mirroring
// _analysis.py's IndexAnalyzer, which visits every tree node via Lark's
// Interpreter but only acts at a handful of them.
func (w *walker) walk(n ast.Node) {
	switch v := n.(type) {
	case nil:
		return
	case *ast.Literal, *ast.Identifier:
		return
	case *ast.FieldSelect:
		w.visitFieldSelect(v)
	case *ast.Index:
		w.walk(v.Receiver)
		w.walk(v.Key)
	case *ast.Call:
		w.visitCall(v)
	case *ast.Unary:
		w.walk(v.Operand)
	case *ast.Binary:
		w.visitBinary(v)
	case *ast.Conditional:
		w.walk(v.Cond)
		w.walk(v.Then)
		w.walk(v.Else)
	case *ast.ListLiteral:
		for _, e := range v.Elements {
			w.walk(e)
		}
	case *ast.MapLiteral:
		for _, e := range v.Entries {
			w.walk(e.Key)
			w.walk(e.Value)
		}
	case *ast.StructLiteral:
		for _, e := range v.Entries {
			w.walk(e.Key)
			w.walk(e.Value)
		}
	case *ast.Comprehension:
		w.visitComprehension(v)
	}
}

// chain mirrors translator's collectChain locally: advisor walks the public
// ast package only and has no access to the translator package's internals.
type chain struct {
	root     ast.Node
	segments []string
}

func collectChain(n ast.Node) chain {
	fs, ok := n.(*ast.FieldSelect)
	if !ok {
		return chain{root: n}
	}

	inner := collectChain(fs.Receiver)
	inner.segments = append(inner.segments, fs.Field)

	return inner
}

// columnOf extracts the (table, column) pair a node denotes, if it is a
// FieldSelect chain rooted at a known table identifier or a bare
// identifier. table is "" for a bare identifier, per
// _analysis.py's _extract_table_name degrading to "".
func columnOf(n ast.Node) (table, column string, ok bool) {
	if ident, isIdent := n.(*ast.Identifier); isIdent {
		return "", ident.Name, true
	}

	c := collectChain(n)

	ident, isIdent := c.root.(*ast.Identifier)
	if !isIdent || len(c.segments) == 0 {
		return "", "", false
	}

	return ident.Name, c.segments[0], true
}

func (w *walker) isJSONColumn(table, column string) bool {
	sch, ok := w.registry.Table(table)
	if !ok {
		return false
	}

	field, ok := sch.Field(column)

	return ok && field.Kind == schema.FieldJSON
}

func (w *walker) isArrayColumn(table, column string) bool {
	sch, ok := w.registry.Table(table)
	if !ok {
		return false
	}

	field, ok := sch.Field(column)

	return ok && field.Kind == schema.FieldArray
}

// visitFieldSelect detects JSON_ACCESS: a dotted chain that reaches past a
// schema-known JSON field's own name into at least one path segment.
func (w *walker) visitFieldSelect(fs *ast.FieldSelect) {
	c := collectChain(fs)

	if ident, isIdent := c.root.(*ast.Identifier); isIdent && len(c.segments) > 1 {
		firstField := c.segments[0]
		if w.isJSONColumn(ident.Name, firstField) {
			w.add(indexPattern{table: ident.Name, column: firstField, pattern: PatternJSONAccess})
		}
	}

	w.walk(fs.Receiver)
}

func isComparisonOp(op ast.BinaryOp) bool {
	switch op {
	case ast.BinEq, ast.BinNe, ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		return true
	default:
		return false
	}
}

// visitBinary detects COMPARISON on either operand of a relational
// operator, and ARRAY_MEMBERSHIP on the left operand of `in`.
func (w *walker) visitBinary(n *ast.Binary) {
	if isComparisonOp(n.Op) {
		for _, operand := range []ast.Node{n.LHS, n.RHS} {
			if table, column, ok := columnOf(operand); ok && table != "" {
				w.add(indexPattern{table: table, column: column, pattern: PatternComparison})
			}
		}
	}

	if n.Op == ast.BinIn {
		if table, column, ok := columnOf(n.LHS); ok && table != "" {
			w.add(indexPattern{table: table, column: column, pattern: PatternArrayMembership})
		}
	}

	w.walk(n.LHS)
	w.walk(n.RHS)
}

// visitCall detects REGEX_MATCH at a matches(subject, pattern) call site.
// The collection macros (exists/all/exists_one/map/filter) never reach here
// — celadapt lowers them to *ast.Comprehension before the advisor sees the
// tree, so visitComprehension is their detection point instead of the
// method-name check _analysis.py's member_dot_arg handler uses.
func (w *walker) visitCall(n *ast.Call) {
	if n.Function == "matches" && len(n.Args) >= 1 {
		if table, column, ok := columnOf(n.Args[0]); ok && table != "" {
			w.add(indexPattern{table: table, column: column, pattern: PatternRegexMatch})
		}
	}

	if n.Receiver != nil {
		w.walk(n.Receiver)
	}

	for _, a := range n.Args {
		w.walk(a)
	}
}

// visitComprehension detects ARRAY_COMPREHENSION or
// JSON_ARRAY_COMPREHENSION depending on whether the range column is a
// schema-known JSON field.
func (w *walker) visitComprehension(n *ast.Comprehension) {
	if table, column, ok := columnOf(n.Range); ok && table != "" {
		pattern := PatternArrayComprehension
		if w.isJSONColumn(table, column) {
			pattern = PatternJSONArrayComprehension
		} else if !w.isArrayColumn(table, column) {
			// Schema-less degradation (P7): no field metadata at all, still
			// worth flagging as a plain array comprehension pattern.
			pattern = PatternArrayComprehension
		}

		w.add(indexPattern{table: table, column: column, pattern: pattern})
	}

	w.walk(n.Range)
	w.walk(n.Predicate)
	w.walk(n.Result)
}
