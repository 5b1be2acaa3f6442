package dialect

import (
	"strconv"
	"strings"
)

var bigqueryTypeMap = map[string]string{
	"bool":      "BOOL",
	"bytes":     "BYTES",
	"double":    "FLOAT64",
	"int":       "INT64",
	"uint":      "INT64",
	"string":    "STRING",
	"timestamp": "TIMESTAMP",
}

// bigqueryTypeNormalize maps loose/aliased type spellings onto the BigQuery
// name used inside an ARRAY<TYPE>[] literal, since empty typed arrays arrive
// with whatever spelling the caller's schema or CEL type used.
var bigqueryTypeNormalize = map[string]string{
	"text":    "STRING",
	"string":  "STRING",
	"varchar": "STRING",
	"int":     "INT64",
	"integer": "INT64",
	"bigint":  "INT64",
	"int64":   "INT64",
	"double":  "FLOAT64",
	"float":   "FLOAT64",
	"real":    "FLOAT64",
	"float64": "FLOAT64",
	"boolean": "BOOL",
	"bool":    "BOOL",
	"bytes":   "BYTES",
	"bytea":   "BYTES",
	"blob":    "BYTES",
}

var bigqueryReserved = reservedSet(
	"all", "alter", "and", "any", "array", "as", "asc", "assert_rows_modified",
	"at", "between", "by", "case", "cast", "collate", "contains", "create",
	"cross", "cube", "current", "default", "define", "desc", "distinct",
	"else", "end", "enum", "escape", "except", "exclude", "exists", "extract",
	"false", "fetch", "following", "for", "from", "full", "group", "grouping",
	"groups", "hash", "having", "if", "ignore", "in", "inner", "insert",
	"intersect", "interval", "into", "is", "join", "lateral", "left", "like",
	"limit", "lookup", "merge", "natural", "new", "no", "not", "null",
	"nulls", "of", "on", "or", "order", "outer", "over", "partition",
	"preceding", "proto", "range", "recursive", "respect", "right",
	"rollup", "rows", "select", "set", "some", "struct", "tablesample",
	"then", "to", "treat", "true", "unbounded", "union", "unnest", "using",
	"when", "where", "window", "with", "within",
)

// bigquery implements Dialect for BigQuery Standard SQL. JSON values are
// manipulated through JSON_VALUE/JSON_QUERY rather than a binary JSON type,
// and arrays are native and strongly typed.
type bigquery struct{}

func (bigquery) Name() Name { return BigQuery }

func (bigquery) WriteStringLiteral(w Writer, value string) error {
	return w.WriteString("'" + escapeBigQueryString(value) + "'")
}

func (bigquery) WriteBytesLiteral(w Writer, value []byte) error {
	var sb strings.Builder

	sb.WriteString(`b"`)

	for _, b := range []byte(value) {
		sb.WriteString("\\")
		sb.WriteString(octal3(b))
	}

	sb.WriteString(`"`)

	return w.WriteString(sb.String())
}

func (bigquery) WriteParamPlaceholder(w Writer, paramIndex int) error {
	return w.WriteString("@p" + strconv.Itoa(paramIndex))
}

func (bigquery) WriteStringConcat(w Writer, lhs, rhs WriteFunc) error {
	e := &emitter{w: w}
	e.f(lhs)
	e.s(" || ")
	e.f(rhs)

	return e.err
}

func (bigquery) WriteRegexMatch(w Writer, target WriteFunc, pattern string, caseInsensitive bool) error {
	e := &emitter{w: w}
	e.s("REGEXP_CONTAINS(")
	e.f(target)
	e.s(", '")

	if caseInsensitive {
		e.s("(?i)")
	}

	e.s(escapeBigQueryString(pattern))
	e.s("')")

	return e.err
}

func (bigquery) WriteLikeEscape(Writer) error { return nil }

func (bigquery) WriteArrayMembership(w Writer, elem, array WriteFunc) error {
	e := &emitter{w: w}
	e.f(elem)
	e.s(" IN UNNEST(")
	e.f(array)
	e.s(")")

	return e.err
}

func (bigquery) WriteCastToNumeric(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("CAST(")
	e.f(expr)
	e.s(" AS FLOAT64)")

	return e.err
}

func (bigquery) WriteTypeName(w Writer, celTypeName string) error {
	sql, ok := bigqueryTypeMap[celTypeName]
	if !ok {
		sql = strings.ToUpper(celTypeName)
	}

	return w.WriteString(sql)
}

func (bigquery) WriteEpochExtract(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNIX_SECONDS(")
	e.f(expr)
	e.s(")")

	return e.err
}

func (bigquery) WriteTimestampCast(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("CAST(")
	e.f(expr)
	e.s(" AS TIMESTAMP)")

	return e.err
}

func (bigquery) WriteArrayLiteralOpen(w Writer) error  { return w.WriteString("[") }
func (bigquery) WriteArrayLiteralClose(w Writer) error { return w.WriteString("]") }

func (bigquery) WriteArrayLength(w Writer, dimension int, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("ARRAY_LENGTH(")
	e.f(expr)
	e.s(")")

	return e.err
}

func (bigquery) WriteListIndex(w Writer, array, index WriteFunc) error {
	e := &emitter{w: w}
	e.f(array)
	e.s("[OFFSET(")
	e.f(index)
	e.s(")]")

	return e.err
}

func (bigquery) WriteListIndexConst(w Writer, array WriteFunc, index int) error {
	e := &emitter{w: w}
	e.f(array)
	e.s("[OFFSET(" + strconv.Itoa(index) + ")]")

	return e.err
}

func (bigquery) WriteEmptyTypedArray(w Writer, typeName string) error {
	bqType, ok := bigqueryTypeNormalize[strings.ToLower(typeName)]
	if !ok {
		bqType = strings.ToUpper(typeName)
	}

	return w.WriteString("ARRAY<" + bqType + ">[]")
}

func (bigquery) WriteJSONFieldAccess(w Writer, base WriteFunc, fieldName string, isFinal bool) error {
	e := &emitter{w: w}

	if isFinal {
		e.s("JSON_VALUE(")
	} else {
		e.s("JSON_QUERY(")
	}

	e.f(base)
	e.s(", '$." + escapeBigQueryString(fieldName) + "')")

	return e.err
}

func (bigquery) WriteJSONExistence(w Writer, isJSONB bool, fieldName string, base WriteFunc) error {
	e := &emitter{w: w}
	e.s("JSON_VALUE(")
	e.f(base)
	e.s(", '$." + escapeBigQueryString(fieldName) + "') IS NOT NULL")

	return e.err
}

func (bigquery) WriteJSONArrayElements(w Writer, isJSONB, asText bool, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNNEST(JSON_QUERY_ARRAY(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (bigquery) WriteJSONArrayLength(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("ARRAY_LENGTH(JSON_QUERY_ARRAY(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (bigquery) WriteJSONArrayMembership(w Writer, jsonFunc string, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNNEST(JSON_VALUE_ARRAY(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (bigquery) WriteNestedJSONArrayMembership(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNNEST(JSON_VALUE_ARRAY(")
	e.f(expr)
	e.s("))")

	return e.err
}

func (bigquery) WriteDuration(w Writer, value int64, unit string) error {
	return w.WriteString("INTERVAL " + strconv.FormatInt(value, 10) + " " + unit)
}

func (bigquery) WriteInterval(w Writer, value WriteFunc, unit string) error {
	e := &emitter{w: w}
	e.s("INTERVAL ")
	e.f(value)
	e.s(" " + unit)

	return e.err
}

func (bigquery) WriteExtract(w Writer, part string, expr WriteFunc, tz WriteFunc) error {
	if part == "DOW" {
		part = "DAYOFWEEK"
	}

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

func (bigquery) WriteTimestampArithmetic(w Writer, op string, ts, dur WriteFunc) error {
	e := &emitter{w: w}

	if op == "+" {
		e.s("TIMESTAMP_ADD(")
	} else {
		e.s("TIMESTAMP_SUB(")
	}

	e.f(ts)
	e.s(", ")
	e.f(dur)
	e.s(")")

	return e.err
}

func (bigquery) WriteContains(w Writer, haystack, needle WriteFunc) error {
	e := &emitter{w: w}
	e.s("STRPOS(")
	e.f(haystack)
	e.s(", ")
	e.f(needle)
	e.s(") > 0")

	return e.err
}

func (bigquery) WriteSplit(w Writer, str, delim WriteFunc) error {
	e := &emitter{w: w}
	e.s("SPLIT(")
	e.f(str)
	e.s(", ")
	e.f(delim)
	e.s(")")

	return e.err
}

func (bigquery) WriteSplitWithLimit(w Writer, str, delim WriteFunc, limit int) error {
	e := &emitter{w: w}
	e.s("ARRAY(SELECT x FROM UNNEST(SPLIT(")
	e.f(str)
	e.s(", ")
	e.f(delim)
	e.s(")) AS x WITH OFFSET WHERE OFFSET < " + strconv.Itoa(limit) + ")")

	return e.err
}

func (bigquery) WriteJoin(w Writer, array, delim WriteFunc) error {
	e := &emitter{w: w}
	e.s("ARRAY_TO_STRING(")
	e.f(array)
	e.s(", ")
	e.f(delim)
	e.s(")")

	return e.err
}

func (bigquery) WriteUnnest(w Writer, source WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNNEST(")
	e.f(source)
	e.s(")")

	return e.err
}

func (bigquery) WriteArraySubqueryOpen(w Writer) error    { return w.WriteString("ARRAY(SELECT ") }
func (bigquery) WriteArraySubqueryExprClose(Writer) error { return nil }

func (bigquery) WriteStructOpen(w Writer) error  { return w.WriteString("STRUCT(") }
func (bigquery) WriteStructClose(w Writer) error { return w.WriteString(")") }

func (bigquery) ConvertRegex(re2Pattern string) (string, bool, error) {
	return convertRE2ToRE2Native(re2Pattern)
}

func (bigquery) MaxIdentifierLength() int { return 300 }

func (bigquery) ValidateFieldName(name string) error {
	return validateFieldName(name, 300, bigqueryReserved)
}

func (bigquery) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (bigquery) SupportsNativeArrays() bool { return true }
func (bigquery) SupportsJSONB() bool        { return false }

func escapeBigQueryString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

func octal3(b byte) string {
	const digits = "01234567"

	return string([]byte{
		digits[(b>>6)&07],
		digits[(b>>3)&07],
		digits[b&07],
	})
}
