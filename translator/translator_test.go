package translator

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/cel2sql/ast"
	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/params"
	"github.com/shibukawa/cel2sql/schema"
	"github.com/shibukawa/cel2sql/sqlbuf"
)

var pos = ast.Position{}

func translate(t *testing.T, root ast.Node, registry *schema.Registry) (string, error) {
	t.Helper()

	d, err := dialect.Get(dialect.PostgreSQL)
	assert.NoError(t, err)

	buf := sqlbuf.New(sqlbuf.DefaultLimits())
	binder := params.NewBinder(d, false)

	tr := New(d, registry, buf, binder)
	err = tr.Translate(root)

	return buf.String(), err
}

func usersRegistry() *schema.Registry {
	return schema.NewRegistry(schema.NewSchema("users", []schema.FieldSchema{
		{Name: "age", Kind: schema.FieldScalar},
		{Name: "name", Kind: schema.FieldScalar},
		{Name: "tags", Kind: schema.FieldArray, ElementType: "string"},
		{Name: "metadata", Kind: schema.FieldJSON, IsBinaryJSON: true},
	}))
}

func TestTranslateComparison(t *testing.T) {
	tests := []struct {
		name    string
		root    ast.Node
		want    string
		wantErr error
	}{
		{
			name: "column equals int literal",
			root: ast.NewBinary(pos, ast.BinEq,
				ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "age"),
				ast.NewLiteral(pos, ast.LiteralInt, int64(30)),
			),
			want: `"users"."age" = 30`,
		},
		{
			name: "string field not equal",
			root: ast.NewBinary(pos, ast.BinNe,
				ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"),
				ast.NewLiteral(pos, ast.LiteralString, "alice"),
			),
			want: `"users"."name" != 'alice'`,
		},
		{
			name: "null comparison uses IS",
			root: ast.NewBinary(pos, ast.BinEq,
				ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"),
				ast.NewLiteral(pos, ast.LiteralNull, nil),
			),
			want: `"users"."name" IS NULL`,
		},
		{
			name: "scalar field cannot be chained",
			root: ast.NewFieldSelect(pos, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "age"), "nested"),
			wantErr: ErrNonJSONPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translate(t, tt.root, usersRegistry())

			if tt.wantErr != nil {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateLogical(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinAnd,
		ast.NewBinary(pos, ast.BinGt, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "age"), ast.NewLiteral(pos, ast.LiteralInt, int64(18))),
		ast.NewBinary(pos, ast.BinOr,
			ast.NewBinary(pos, ast.BinEq, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"), ast.NewLiteral(pos, ast.LiteralString, "bob")),
			ast.NewBinary(pos, ast.BinEq, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"), ast.NewLiteral(pos, ast.LiteralString, "carol")),
		),
	)

	got, err := translate(t, root, usersRegistry())
	assert.NoError(t, err)
	assert.Equal(t, `"users"."age" > 18 AND ("users"."name" = 'bob' OR "users"."name" = 'carol')`, got)
}

func TestTranslateJSONFieldAccess(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinEq,
		ast.NewFieldSelect(pos, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "metadata"), "role"),
		ast.NewLiteral(pos, ast.LiteralString, "admin"),
	)

	got, err := translate(t, root, usersRegistry())
	assert.NoError(t, err)
	assert.Equal(t, `"users"."metadata"->>'role' = 'admin'`, got)
}

func TestTranslateHasOnJSON(t *testing.T) {
	callNode := ast.NewCall(pos, nil, "has", []ast.Node{
		ast.NewFieldSelect(pos, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "metadata"), "role"),
	})

	got, err := translate(t, callNode, usersRegistry())
	assert.NoError(t, err)
	assert.Equal(t, `"users"."metadata" ? 'role'`, got)
}

func TestTranslateArrayMembership(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinIn,
		ast.NewLiteral(pos, ast.LiteralString, "admin"),
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "tags"),
	)

	got, err := translate(t, root, usersRegistry())
	assert.NoError(t, err)
	assert.Equal(t, `'admin' = ANY("users"."tags")`, got)
}

func TestTranslateStringMethods(t *testing.T) {
	tests := []struct {
		name string
		call *ast.Call
		want string
	}{
		{
			name: "contains",
			call: ast.NewCall(pos, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"), "contains", []ast.Node{ast.NewLiteral(pos, ast.LiteralString, "ali")}),
			want: `POSITION('ali' IN "users"."name") > 0`,
		},
		{
			name: "startsWith",
			call: ast.NewCall(pos, ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"), "startsWith", []ast.Node{ast.NewLiteral(pos, ast.LiteralString, "al")}),
			want: `"users"."name" LIKE ('al' || '%') ESCAPE E'\\'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translate(t, tt.call, usersRegistry())
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateMatchesRejectsNonLiteralPattern(t *testing.T) {
	call := ast.NewCall(pos, nil, "matches", []ast.Node{
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"),
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "name"),
	})

	_, err := translate(t, call, usersRegistry())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "matches")
}

func TestTranslateComprehensionExists(t *testing.T) {
	comp := ast.NewComprehension(pos, ast.ComprehensionExists,
		ast.NewFieldSelect(pos, ast.NewIdentifier(pos, "users"), "tags"),
		"t",
		ast.NewBinary(pos, ast.BinEq, ast.NewIdentifier(pos, "t"), ast.NewLiteral(pos, ast.LiteralString, "admin")),
		nil,
	)

	got, err := translate(t, comp, usersRegistry())
	assert.NoError(t, err)
	assert.Equal(t, `EXISTS (SELECT 1 FROM UNNEST("users"."tags") AS t WHERE t = 'admin')`, got)
}

func TestTranslateUnresolvedIdentifierDegradesToColumn(t *testing.T) {
	root := ast.NewBinary(pos, ast.BinEq, ast.NewIdentifier(pos, "orphan"), ast.NewLiteral(pos, ast.LiteralInt, int64(1)))

	got, err := translate(t, root, usersRegistry())
	assert.NoError(t, err)
	assert.Equal(t, `orphan = 1`, got)
}

func TestTranslateSizeAmbiguous(t *testing.T) {
	call := ast.NewCall(pos, nil, "size", []ast.Node{ast.NewIdentifier(pos, "unresolved")})

	_, err := translate(t, call, usersRegistry())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}
