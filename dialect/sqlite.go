package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

var sqliteTypeMap = map[string]string{
	"bool":      "INTEGER",
	"bytes":     "BLOB",
	"double":    "REAL",
	"int":       "INTEGER",
	"uint":      "INTEGER",
	"string":    "TEXT",
	"timestamp": "TEXT",
}

// sqliteStrftimeMap maps EXTRACT-style part names onto strftime format
// codes; parts absent from this table fall back to a bare EXTRACT(...) call
// that most SQLite builds will reject, since SQLite has no native EXTRACT.
var sqliteStrftimeMap = map[string]string{
	"YEAR":         "%Y",
	"MONTH":        "%m",
	"DAY":          "%d",
	"HOUR":         "%H",
	"MINUTE":       "%M",
	"SECOND":       "%S",
	"DOY":          "%j",
	"DOW":          "%w",
	"MILLISECONDS": "%f",
}

var sqliteReserved = reservedSet(
	"abort", "action", "add", "after", "all", "alter", "always", "analyze",
	"and", "as", "asc", "attach", "autoincrement", "before", "begin",
	"between", "by", "cascade", "case", "cast", "check", "collate",
	"column", "commit", "conflict", "constraint", "create", "cross",
	"current", "current_date", "current_time", "current_timestamp",
	"database", "default", "deferrable", "deferred", "delete", "desc",
	"detach", "distinct", "do", "drop", "each", "else", "end", "escape",
	"except", "exclude", "exclusive", "exists", "explain", "fail",
	"filter", "first", "following", "for", "foreign", "from", "full",
	"generated", "glob", "group", "groups", "having", "if", "ignore",
	"immediate", "in", "index", "indexed", "initially", "inner", "insert",
	"instead", "intersect", "into", "is", "isnull", "join", "key",
	"last", "left", "like", "limit", "match", "materialized", "natural",
	"no", "not", "nothing", "notnull", "null", "nulls", "of", "offset",
	"on", "or", "order", "others", "outer", "over", "partition", "plan",
	"pragma", "preceding", "primary", "query", "raise", "range",
	"recursive", "references", "regexp", "reindex", "release", "rename",
	"replace", "restrict", "returning", "right", "rollback", "row",
	"rows", "savepoint", "select", "set", "table", "temp", "temporary",
	"then", "ties", "to", "transaction", "trigger", "true", "unbounded",
	"union", "unique", "update", "using", "vacuum", "values", "view",
	"virtual", "when", "where", "window", "with", "without",
)

// sqlite implements Dialect for SQLite. Arrays and JSON share the same
// representation: the builtin json1 extension's functions operating over a
// TEXT column. SQLite has no regex, split, or join primitives, so those
// methods reject with ErrUnsupportedFeature rather than emit SQL.
type sqlite struct{}

func (sqlite) Name() Name { return SQLite }

func (sqlite) WriteStringLiteral(w Writer, value string) error {
	return w.WriteString("'" + escapeSingleQuotes(value) + "'")
}

func (sqlite) WriteBytesLiteral(w Writer, value []byte) error {
	return w.WriteString("X'" + strings.ToUpper(fmt.Sprintf("%x", value)) + "'")
}

func (sqlite) WriteParamPlaceholder(w Writer, paramIndex int) error {
	return w.WriteString("?")
}

func (sqlite) WriteStringConcat(w Writer, lhs, rhs WriteFunc) error {
	e := &emitter{w: w}
	e.f(lhs)
	e.s(" || ")
	e.f(rhs)

	return e.err
}

func (sqlite) WriteRegexMatch(w Writer, target WriteFunc, pattern string, caseInsensitive bool) error {
	return ErrUnsupportedFeature
}

func (sqlite) WriteLikeEscape(w Writer) error {
	return w.WriteString(` ESCAPE '\'`)
}

func (sqlite) WriteArrayMembership(w Writer, elem, array WriteFunc) error {
	e := &emitter{w: w}
	e.f(elem)
	e.s(" IN (SELECT value FROM json_each(")
	e.f(array)
	e.s("))")

	return e.err
}

func (sqlite) WriteCastToNumeric(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.f(expr)
	e.s(" + 0")

	return e.err
}

func (sqlite) WriteTypeName(w Writer, celTypeName string) error {
	sql, ok := sqliteTypeMap[celTypeName]
	if !ok {
		sql = strings.ToUpper(celTypeName)
	}

	return w.WriteString(sql)
}

func (sqlite) WriteEpochExtract(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("CAST(strftime('%s', ")
	e.f(expr)
	e.s(") AS INTEGER)")

	return e.err
}

func (sqlite) WriteTimestampCast(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("datetime(")
	e.f(expr)
	e.s(")")

	return e.err
}

func (sqlite) WriteArrayLiteralOpen(w Writer) error  { return w.WriteString("json_array(") }
func (sqlite) WriteArrayLiteralClose(w Writer) error { return w.WriteString(")") }

func (sqlite) WriteArrayLength(w Writer, dimension int, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("COALESCE(json_array_length(")
	e.f(expr)
	e.s("), 0)")

	return e.err
}

func (sqlite) WriteListIndex(w Writer, array, index WriteFunc) error {
	e := &emitter{w: w}
	e.s("json_extract(")
	e.f(array)
	e.s(", '$[' || ")
	e.f(index)
	e.s(" || ']')")

	return e.err
}

func (sqlite) WriteListIndexConst(w Writer, array WriteFunc, index int) error {
	e := &emitter{w: w}
	e.s("json_extract(")
	e.f(array)
	e.s(", '$[" + strconv.Itoa(index) + "]')")

	return e.err
}

func (sqlite) WriteEmptyTypedArray(w Writer, typeName string) error {
	return w.WriteString("json_array()")
}

func (sqlite) WriteJSONFieldAccess(w Writer, base WriteFunc, fieldName string, isFinal bool) error {
	e := &emitter{w: w}
	e.s("json_extract(")
	e.f(base)
	e.s(", '$." + escapeSingleQuotes(fieldName) + "')")

	return e.err
}

func (sqlite) WriteJSONExistence(w Writer, isJSONB bool, fieldName string, base WriteFunc) error {
	e := &emitter{w: w}
	e.s("json_type(")
	e.f(base)
	e.s(", '$." + escapeSingleQuotes(fieldName) + "') IS NOT NULL")

	return e.err
}

func (sqlite) WriteJSONArrayElements(w Writer, isJSONB, asText bool, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("json_each(")
	e.f(expr)
	e.s(")")

	return e.err
}

func (sqlite) WriteJSONArrayLength(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("COALESCE(json_array_length(")
	e.f(expr)
	e.s("), 0)")

	return e.err
}

func (sqlite) WriteJSONArrayMembership(w Writer, jsonFunc string, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("(SELECT value FROM json_each(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (sqlite) WriteNestedJSONArrayMembership(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("(SELECT value FROM json_each(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (sqlite) WriteDuration(w Writer, value int64, unit string) error {
	unitLower := strings.TrimSuffix(strings.ToLower(unit), "s")

	switch unitLower {
	case "millisecond":
		return w.WriteString("'+" + sqliteFractionalSeconds(value, 1000) + " seconds'")
	case "microsecond":
		return w.WriteString("'+" + sqliteFractionalSeconds(value, 1_000_000) + " seconds'")
	case "nanosecond":
		return w.WriteString("'+" + sqliteFractionalSeconds(value, 1_000_000_000) + " seconds'")
	default:
		return w.WriteString("'+" + strconv.FormatInt(value, 10) + " " + unitLower + "s'")
	}
}

func (sqlite) WriteInterval(w Writer, value WriteFunc, unit string) error {
	unitLower := strings.TrimSuffix(strings.ToLower(unit), "s")

	e := &emitter{w: w}
	e.s("'+' || ")
	e.f(value)
	e.s(" || ' " + unitLower + "s'")

	return e.err
}

func (sqlite) WriteExtract(w Writer, part string, expr WriteFunc, tz WriteFunc) error {
	format, ok := sqliteStrftimeMap[part]
	if !ok {
		e := &emitter{w: w}
		e.s("EXTRACT(" + part + " FROM ")
		e.f(expr)
		e.s(")")

		return e.err
	}

	e := &emitter{w: w}
	e.s("CAST(strftime('" + format + "', ")
	e.f(expr)
	e.s(") AS INTEGER)")

	return e.err
}

func (sqlite) WriteTimestampArithmetic(w Writer, op string, ts, dur WriteFunc) error {
	e := &emitter{w: w}
	e.s("datetime(")
	e.f(ts)
	e.s(", ")

	if op == "-" {
		e.s("REPLACE(")
		e.f(dur)
		e.s(", '+', '-')")
	} else {
		e.f(dur)
	}

	e.s(")")

	return e.err
}

func (sqlite) WriteContains(w Writer, haystack, needle WriteFunc) error {
	e := &emitter{w: w}
	e.s("INSTR(")
	e.f(haystack)
	e.s(", ")
	e.f(needle)
	e.s(") > 0")

	return e.err
}

func (sqlite) WriteSplit(w Writer, str, delim WriteFunc) error {
	return ErrUnsupportedFeature
}

func (sqlite) WriteSplitWithLimit(w Writer, str, delim WriteFunc, limit int) error {
	return ErrUnsupportedFeature
}

func (sqlite) WriteJoin(w Writer, array, delim WriteFunc) error {
	return ErrUnsupportedFeature
}

func (sqlite) WriteUnnest(w Writer, source WriteFunc) error {
	e := &emitter{w: w}
	e.s("json_each(")
	e.f(source)
	e.s(")")

	return e.err
}

func (sqlite) WriteArraySubqueryOpen(w Writer) error {
	return w.WriteString("(SELECT json_group_array(")
}

func (sqlite) WriteArraySubqueryExprClose(w Writer) error { return w.WriteString(")") }

func (sqlite) WriteStructOpen(w Writer) error  { return w.WriteString("json_object(") }
func (sqlite) WriteStructClose(w Writer) error { return w.WriteString(")") }

func (sqlite) ConvertRegex(re2Pattern string) (string, bool, error) {
	return "", false, ErrUnsupportedFeature
}

func (sqlite) MaxIdentifierLength() int { return 0 }

func (sqlite) ValidateFieldName(name string) error {
	return validateFieldName(name, 0, sqliteReserved)
}

func (sqlite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqlite) SupportsNativeArrays() bool { return false }
func (sqlite) SupportsJSONB() bool        { return false }

func sqliteFractionalSeconds(value int64, divisor int64) string {
	secs := float64(value) / float64(divisor)
	return strconv.FormatFloat(secs, 'f', -1, 64)
}
