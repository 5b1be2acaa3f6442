package dialect

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestGetKnownDialects(t *testing.T) {
	for _, name := range []Name{PostgreSQL, MySQL, SQLite, DuckDB, BigQuery} {
		d, err := Get(name)
		assert.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}
}

func TestGetUnknownDialect(t *testing.T) {
	_, err := Get(Name("oracle"))
	assert.IsError(t, err, ErrUnknownDialect)
}

func TestValidateFieldNameRejectsReservedWord(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	assert.NoError(t, d.ValidateFieldName("user_id"))
	assert.IsError(t, d.ValidateFieldName("select"), ErrInvalidIdentifier)
}

func TestValidateFieldNameRejectsEmptyAndInvalidChars(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	assert.IsError(t, d.ValidateFieldName(""), ErrInvalidIdentifier)
	assert.IsError(t, d.ValidateFieldName("has space"), ErrInvalidIdentifier)
}

func TestValidateFieldNameEnforcesLengthCap(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}

	assert.IsError(t, d.ValidateFieldName(string(long)), ErrInvalidIdentifier)
}

func TestPostgresConvertRegexRejectsLookaround(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	_, _, err = d.ConvertRegex(`(?=foo)bar`)
	assert.IsError(t, err, ErrUnsupportedFeature)
}

func TestPostgresConvertRegexRewritesShorthandClasses(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	pattern, caseInsensitive, err := d.ConvertRegex(`\d+`)
	assert.NoError(t, err)
	assert.False(t, caseInsensitive)
	assert.Equal(t, `[[:digit:]]+`, pattern)
}

func TestPostgresConvertRegexSplitsOutCaseInsensitiveFlag(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	pattern, caseInsensitive, err := d.ConvertRegex(`(?i)abc`)
	assert.NoError(t, err)
	assert.True(t, caseInsensitive)
	assert.Equal(t, "abc", pattern)
}

func TestPostgresConvertRegexRejectsNestedQuantifiers(t *testing.T) {
	d, err := Get(PostgreSQL)
	assert.NoError(t, err)

	_, _, err = d.ConvertRegex(`(a+)+`)
	assert.IsError(t, err, ErrUnsupportedFeature)
}

func TestMySQLConvertRegexAllowsLookaroundUnlikePostgres(t *testing.T) {
	d, err := Get(MySQL)
	assert.NoError(t, err)

	pattern, _, err := d.ConvertRegex(`(?=foo)bar`)
	assert.NoError(t, err)
	assert.Equal(t, `(?=foo)bar`, pattern)
}

func TestDuckDBConvertRegexPassesThroughRE2Native(t *testing.T) {
	d, err := Get(DuckDB)
	assert.NoError(t, err)

	pattern, caseInsensitive, err := d.ConvertRegex(`(?i)\d+`)
	assert.NoError(t, err)
	assert.True(t, caseInsensitive)
	assert.Equal(t, `\d+`, pattern)
}
