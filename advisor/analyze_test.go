package advisor

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/schema"
)

var pos = ast.Position{}

func ordersRegistry() *schema.Registry {
	return schema.NewRegistry(schema.NewSchema("orders", []schema.FieldSchema{
		{Name: "total", Kind: schema.FieldScalar},
		{Name: "tags", Kind: schema.FieldArray, ElementType: "string"},
		{Name: "metadata", Kind: schema.FieldJSON, IsBinaryJSON: true},
	}))
}

func TestAnalyzeComparisonPostgreSQL(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinGt,
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "total"),
		ast.NewLiteral(pos, ast.LiteralInt, int64(100)),
	)

	recs, err := Analyze(root, ordersRegistry(), dialect.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, "orders", recs[0].Table)
	assert.Equal(t, "total", recs[0].Column)
	assert.Equal(t, IndexBTree, recs[0].IndexType)
}

func TestAnalyzeJSONAccessPostgreSQL(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinEq,
		ast.NewFieldSelect(pos, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "metadata"), "status"),
		ast.NewLiteral(pos, ast.LiteralString, "paid"),
	)

	recs, err := Analyze(root, ordersRegistry(), dialect.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, IndexGIN, recs[0].IndexType)
}

// ARRAY_MEMBERSHIP fires on the left (column) side of `x in y` — the
// col-IN-dynamic-collection shape, mirroring _analysis.py's relation_in
// handler, which also keys off its lhs rather than the collection operand.
func TestAnalyzeArrayMembershipDuckDB(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinIn,
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "total"),
		ast.NewListLiteral(pos, []ast.Node{ast.NewLiteral(pos, ast.LiteralInt, int64(1)), ast.NewLiteral(pos, ast.LiteralInt, int64(2))}),
	)

	recs, err := Analyze(root, ordersRegistry(), dialect.DuckDB)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, IndexART, recs[0].IndexType)
}

func TestAnalyzeRegexMatchBigQuery(t *testing.T) {
	call := ast.NewCall(pos, nil, "matches", []ast.Node{
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "total"),
		ast.NewLiteral(pos, ast.LiteralString, "^1.*"),
	})

	recs, err := Analyze(call, ordersRegistry(), dialect.BigQuery)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, IndexSearchIndex, recs[0].IndexType)
}

func TestAnalyzeDedupKeepsHighestPriorityIndex(t *testing.T) {
	// Two patterns on the same column: a comparison and a regex match.
	// The regex match's index (GIST) outranks the comparison's (BTREE).
	root := ast.NewBinary(pos, ast.BinAnd,
		ast.NewBinary(pos, ast.BinGt, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "total"), ast.NewLiteral(pos, ast.LiteralInt, int64(0))),
		ast.NewCall(pos, nil, "matches", []ast.Node{
			ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "total"),
			ast.NewLiteral(pos, ast.LiteralString, "^1"),
		}),
	)

	recs, err := Analyze(root, ordersRegistry(), dialect.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, IndexGIST, recs[0].IndexType)
}

func TestAnalyzeUnknownDialectReturnsNoRecommendations(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinGt, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "total"), ast.NewLiteral(pos, ast.LiteralInt, int64(0)))

	recs, err := Analyze(root, ordersRegistry(), dialect.Name("oracle"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(recs))
}

func TestAnalyzeSchemaLessDegradesToArrayComprehension(t *testing.T) {
	comp := ast.NewComprehension(pos, ast.ComprehensionExists,
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "orders"), "unknown_field"),
		"x",
		ast.NewBinary(pos, ast.BinEq, ast.NewIdentifier(pos, "x"), ast.NewLiteral(pos, ast.LiteralInt, int64(1))),
		nil,
	)

	recs, err := Analyze(comp, nil, dialect.DuckDB)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, IndexART, recs[0].IndexType)
}
