package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

var duckdbTypeMap = map[string]string{
	"bool":      "BOOLEAN",
	"bytes":     "BLOB",
	"double":    "DOUBLE",
	"int":       "BIGINT",
	"uint":      "UBIGINT",
	"string":    "VARCHAR",
	"timestamp": "TIMESTAMPTZ",
}

var duckdbReserved = reservedSet(
	"all", "alter", "and", "any", "array", "as", "asc", "between",
	"by", "case", "cast", "check", "column", "constraint", "create",
	"cross", "current", "current_date", "current_time", "current_timestamp",
	"default", "delete", "desc", "distinct", "drop", "else", "end",
	"except", "exists", "false", "for", "foreign", "from", "full",
	"grant", "group", "having", "in", "index", "inner", "insert",
	"intersect", "into", "is", "isnull", "join", "lateral", "left",
	"like", "limit", "not", "notnull", "null", "offset", "on", "or",
	"order", "outer", "primary", "references", "right", "select", "set",
	"table", "then", "to", "true", "union", "unique", "update", "using",
	"values", "when", "where", "with",
)

// duckdb implements Dialect for DuckDB. Arrays are native; JSON values are
// handled through the json_* function family rather than a dedicated binary
// type, so SupportsJSONB reports false.
type duckdb struct{}

func (duckdb) Name() Name { return DuckDB }

func (duckdb) WriteStringLiteral(w Writer, value string) error {
	return w.WriteString("'" + escapeSingleQuotes(value) + "'")
}

func (duckdb) WriteBytesLiteral(w Writer, value []byte) error {
	return w.WriteString("'\\x" + strings.ToUpper(fmt.Sprintf("%x", value)) + "'")
}

func (duckdb) WriteParamPlaceholder(w Writer, paramIndex int) error {
	return w.WriteString("$" + strconv.Itoa(paramIndex))
}

func (duckdb) WriteStringConcat(w Writer, lhs, rhs WriteFunc) error {
	e := &emitter{w: w}
	e.f(lhs)
	e.s(" || ")
	e.f(rhs)

	return e.err
}

func (duckdb) WriteRegexMatch(w Writer, target WriteFunc, pattern string, caseInsensitive bool) error {
	e := &emitter{w: w}
	e.s("regexp_matches(")
	e.f(target)
	e.s(", '")
	e.s(escapeSingleQuotes(pattern))

	if caseInsensitive {
		e.s("', 'i')")
	} else {
		e.s("')")
	}

	return e.err
}

func (duckdb) WriteLikeEscape(w Writer) error {
	return w.WriteString(` ESCAPE '\'`)
}

func (duckdb) WriteArrayMembership(w Writer, elem, array WriteFunc) error {
	e := &emitter{w: w}
	e.f(elem)
	e.s(" = ANY(")
	e.f(array)
	e.s(")")

	return e.err
}

func (duckdb) WriteCastToNumeric(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.f(expr)
	e.s("::DOUBLE")

	return e.err
}

func (duckdb) WriteTypeName(w Writer, celTypeName string) error {
	sql, ok := duckdbTypeMap[celTypeName]
	if !ok {
		sql = strings.ToUpper(celTypeName)
	}

	return w.WriteString(sql)
}

func (duckdb) WriteEpochExtract(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("EXTRACT(EPOCH FROM ")
	e.f(expr)
	e.s(")::BIGINT")

	return e.err
}

func (duckdb) WriteTimestampCast(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("CAST(")
	e.f(expr)
	e.s(" AS TIMESTAMPTZ)")

	return e.err
}

func (duckdb) WriteArrayLiteralOpen(w Writer) error  { return w.WriteString("[") }
func (duckdb) WriteArrayLiteralClose(w Writer) error { return w.WriteString("]") }

func (duckdb) WriteArrayLength(w Writer, dimension int, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("COALESCE(array_length(")
	e.f(expr)
	e.s("), 0)")

	return e.err
}

func (duckdb) WriteListIndex(w Writer, array, index WriteFunc) error {
	e := &emitter{w: w}
	e.f(array)
	e.s("[")
	e.f(index)
	e.s(" + 1]")

	return e.err
}

func (duckdb) WriteListIndexConst(w Writer, array WriteFunc, index int) error {
	e := &emitter{w: w}
	e.f(array)
	e.s("[" + strconv.Itoa(index+1) + "]")

	return e.err
}

func (duckdb) WriteEmptyTypedArray(w Writer, typeName string) error {
	return w.WriteString("[]::" + typeName + "[]")
}

func (duckdb) WriteJSONFieldAccess(w Writer, base WriteFunc, fieldName string, isFinal bool) error {
	e := &emitter{w: w}
	e.f(base)

	if isFinal {
		e.s("->>'" + escapeSingleQuotes(fieldName) + "'")
	} else {
		e.s("->'" + escapeSingleQuotes(fieldName) + "'")
	}

	return e.err
}

func (duckdb) WriteJSONExistence(w Writer, isJSONB bool, fieldName string, base WriteFunc) error {
	e := &emitter{w: w}
	e.s("json_exists(")
	e.f(base)
	e.s(", '$." + escapeSingleQuotes(fieldName) + "')")

	return e.err
}

func (duckdb) WriteJSONArrayElements(w Writer, isJSONB, asText bool, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("json_each(")
	e.f(expr)
	e.s(")")

	return e.err
}

func (duckdb) WriteJSONArrayLength(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("COALESCE(json_array_length(")
	e.f(expr)
	e.s("), 0)")

	return e.err
}

func (duckdb) WriteJSONArrayMembership(w Writer, jsonFunc string, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("(SELECT value FROM json_each(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (duckdb) WriteNestedJSONArrayMembership(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("(SELECT value FROM json_each(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (duckdb) WriteDuration(w Writer, value int64, unit string) error {
	return w.WriteString("INTERVAL " + strconv.FormatInt(value, 10) + " " + unit)
}

func (duckdb) WriteInterval(w Writer, value WriteFunc, unit string) error {
	e := &emitter{w: w}
	e.s("INTERVAL ")
	e.f(value)
	e.s(" " + unit)

	return e.err
}

func (duckdb) WriteExtract(w Writer, part string, expr WriteFunc, tz WriteFunc) error {
	e := &emitter{w: w}
	e.s("EXTRACT(" + part + " FROM ")
	e.f(expr)

	if tz != nil {
		e.s(" AT TIME ZONE ")
		e.f(tz)
	}

	e.s(")")

	return e.err
}

func (duckdb) WriteTimestampArithmetic(w Writer, op string, ts, dur WriteFunc) error {
	e := &emitter{w: w}
	e.f(ts)
	e.s(" " + op + " ")
	e.f(dur)

	return e.err
}

func (duckdb) WriteContains(w Writer, haystack, needle WriteFunc) error {
	e := &emitter{w: w}
	e.s("CONTAINS(")
	e.f(haystack)
	e.s(", ")
	e.f(needle)
	e.s(")")

	return e.err
}

func (duckdb) WriteSplit(w Writer, str, delim WriteFunc) error {
	e := &emitter{w: w}
	e.s("STRING_SPLIT(")
	e.f(str)
	e.s(", ")
	e.f(delim)
	e.s(")")

	return e.err
}

func (duckdb) WriteSplitWithLimit(w Writer, str, delim WriteFunc, limit int) error {
	e := &emitter{w: w}
	e.s("STRING_SPLIT(")
	e.f(str)
	e.s(", ")
	e.f(delim)
	e.s(")[1:" + strconv.Itoa(limit) + "]")

	return e.err
}

func (duckdb) WriteJoin(w Writer, array, delim WriteFunc) error {
	e := &emitter{w: w}
	e.s("ARRAY_TO_STRING(")
	e.f(array)
	e.s(", ")
	e.f(delim)
	e.s(")")

	return e.err
}

func (duckdb) WriteUnnest(w Writer, source WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNNEST(")
	e.f(source)
	e.s(")")

	return e.err
}

func (duckdb) WriteArraySubqueryOpen(w Writer) error    { return w.WriteString("ARRAY(SELECT ") }
func (duckdb) WriteArraySubqueryExprClose(Writer) error { return nil }

func (duckdb) WriteStructOpen(w Writer) error  { return w.WriteString("ROW(") }
func (duckdb) WriteStructClose(w Writer) error { return w.WriteString(")") }

func (duckdb) ConvertRegex(re2Pattern string) (string, bool, error) {
	return convertRE2ToRE2Native(re2Pattern)
}

func (duckdb) MaxIdentifierLength() int { return 0 }

func (duckdb) ValidateFieldName(name string) error {
	return validateFieldName(name, 0, duckdbReserved)
}

func (duckdb) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (duckdb) SupportsNativeArrays() bool { return true }
func (duckdb) SupportsJSONB() bool        { return false }
