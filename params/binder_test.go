package params

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/sqlbuf"
)

func newBuf() *sqlbuf.Buffer { return sqlbuf.New(sqlbuf.DefaultLimits()) }

func postgresDialect(t *testing.T) dialect.Dialect {
	t.Helper()

	d, err := dialect.Get(dialect.PostgreSQL)
	assert.NoError(t, err)

	return d
}

func TestBinderInlineMode(t *testing.T) {
	d := postgresDialect(t)
	b := NewBinder(d, false)
	buf := newBuf()

	assert.NoError(t, b.WriteString(buf, "o'brien"))
	assert.NoError(t, buf.WriteString(" "))
	assert.NoError(t, b.WriteInt(buf, 42))
	assert.NoError(t, buf.WriteString(" "))
	assert.NoError(t, b.WriteDouble(buf, 3.0))

	assert.Equal(t, `'o''brien' 42 3.0`, buf.String())
	assert.Equal(t, 0, len(b.Parameters()))
}

func TestBinderParameterizedMode(t *testing.T) {
	d := postgresDialect(t)
	b := NewBinder(d, true)
	buf := newBuf()

	assert.NoError(t, b.WriteString(buf, "alice"))
	assert.NoError(t, buf.WriteString(", "))
	assert.NoError(t, b.WriteInt(buf, 42))

	assert.Equal(t, "$1, $2", buf.String())
	assert.Equal(t, []any{"alice", int64(42)}, b.Parameters())
}

func TestBinderBoolAndNullNeverParameterized(t *testing.T) {
	d := postgresDialect(t)
	b := NewBinder(d, true)
	buf := newBuf()

	assert.NoError(t, b.WriteBool(buf, true))
	assert.NoError(t, buf.WriteString(" "))
	assert.NoError(t, b.WriteNull(buf))

	assert.Equal(t, "TRUE NULL", buf.String())
	assert.Equal(t, 0, len(b.Parameters()))
}

func TestBinderDoubleAlwaysCarriesDecimalPoint(t *testing.T) {
	d := postgresDialect(t)
	b := NewBinder(d, false)
	buf := newBuf()

	assert.NoError(t, b.WriteDouble(buf, 7))

	assert.Equal(t, "7.0", buf.String())
}
