package celadapt

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	ourast "github.com/shibukawa/cel2sql/ast"
)

func lower(t *testing.T, source string) (ourast.Node, error) {
	t.Helper()

	a, err := ParseToAST(source)
	if err != nil {
		return nil, err
	}

	return Lower(a)
}

func TestParseToASTRejectsSyntaxErrors(t *testing.T) {
	_, err := ParseToAST("users.age >")
	assert.Error(t, err)
	assert.IsError(t, err, ErrSyntax)
}

func TestLowerBinaryComparison(t *testing.T) {
	root, err := lower(t, `users.age > 18`)
	assert.NoError(t, err)

	bin, ok := root.(*ourast.Binary)
	assert.True(t, ok)
	assert.Equal(t, ourast.BinGt, bin.Op)

	fs, ok := bin.LHS.(*ourast.FieldSelect)
	assert.True(t, ok)
	assert.Equal(t, "age", fs.Field)

	lit, ok := bin.RHS.(*ourast.Literal)
	assert.True(t, ok)
	assert.Equal(t, ourast.LiteralInt, lit.Kind)
}

func TestLowerHasMacro(t *testing.T) {
	root, err := lower(t, `has(users.metadata)`)
	assert.NoError(t, err)

	call, ok := root.(*ourast.Call)
	assert.True(t, ok)
	assert.Equal(t, "has", call.Function)
	assert.Equal(t, 1, len(call.Args))
}

func TestLowerExistsMacro(t *testing.T) {
	root, err := lower(t, `users.tags.exists(t, t == "admin")`)
	assert.NoError(t, err)

	comp, ok := root.(*ourast.Comprehension)
	assert.True(t, ok)
	assert.Equal(t, ourast.ComprehensionExists, comp.Kind)
	assert.Equal(t, "t", comp.IterVar)
}

func TestLowerAllMacro(t *testing.T) {
	root, err := lower(t, `users.tags.all(t, t == "admin")`)
	assert.NoError(t, err)

	comp, ok := root.(*ourast.Comprehension)
	assert.True(t, ok)
	assert.Equal(t, ourast.ComprehensionAll, comp.Kind)
}

func TestLowerExistsOneMacro(t *testing.T) {
	root, err := lower(t, `users.tags.exists_one(t, t == "admin")`)
	assert.NoError(t, err)

	comp, ok := root.(*ourast.Comprehension)
	assert.True(t, ok)
	assert.Equal(t, ourast.ComprehensionExistsOne, comp.Kind)
}

func TestLowerFilterMacro(t *testing.T) {
	root, err := lower(t, `users.tags.filter(t, t != "")`)
	assert.NoError(t, err)

	comp, ok := root.(*ourast.Comprehension)
	assert.True(t, ok)
	assert.Equal(t, ourast.ComprehensionFilter, comp.Kind)
}

func TestLowerMapMacro(t *testing.T) {
	root, err := lower(t, `users.tags.map(t, t)`)
	assert.NoError(t, err)

	comp, ok := root.(*ourast.Comprehension)
	assert.True(t, ok)
	assert.Equal(t, ourast.ComprehensionMap, comp.Kind)
}

func TestLowerListAndLogical(t *testing.T) {
	root, err := lower(t, `users.age > 18 && users.name in ["alice", "bob"]`)
	assert.NoError(t, err)

	bin, ok := root.(*ourast.Binary)
	assert.True(t, ok)
	assert.Equal(t, ourast.BinAnd, bin.Op)

	membership, ok := bin.RHS.(*ourast.Binary)
	assert.True(t, ok)
	assert.Equal(t, ourast.BinIn, membership.Op)

	list, ok := membership.RHS.(*ourast.ListLiteral)
	assert.True(t, ok)
	assert.Equal(t, 2, len(list.Elements))
}

func TestLowerRejectsNilAST(t *testing.T) {
	_, err := Lower(nil)
	assert.Error(t, err)
	assert.IsError(t, err, ErrMalformedAST)
}
