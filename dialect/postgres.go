package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// postgresTypeMap maps CEL type names to PostgreSQL type names.
var postgresTypeMap = map[string]string{
	"bool":   "BOOLEAN",
	"bytes":  "BYTEA",
	"double": "DOUBLE PRECISION",
	"int":    "BIGINT",
	"uint":   "BIGINT",
	"string": "TEXT",
	// timestamp intentionally uses the timezone-aware type: consumers
	// compare against RFC3339 literals, not naive local time.
	"timestamp": "TIMESTAMP WITH TIME ZONE",
}

var postgresReserved = reservedSet(
	"all", "alter", "and", "any", "array", "as", "asc", "between",
	"by", "case", "cast", "check", "column", "constraint", "create",
	"cross", "current", "current_date", "current_time", "current_timestamp",
	"current_user", "default", "delete", "desc", "distinct", "drop",
	"else", "end", "except", "exists", "false", "for", "foreign",
	"from", "full", "grant", "group", "having", "in", "index", "inner",
	"insert", "intersect", "into", "is", "join", "left", "like", "limit",
	"not", "null", "offset", "on", "or", "order", "outer", "primary",
	"references", "right", "select", "session_user", "set", "some",
	"table", "then", "to", "true", "union", "unique", "update", "user",
	"using", "values", "when", "where", "with",
)

type postgres struct{}

func (postgres) Name() Name { return PostgreSQL }

func (postgres) WriteStringLiteral(w Writer, value string) error {
	return w.WriteString("'" + escapeSingleQuotes(value) + "'")
}

func (postgres) WriteBytesLiteral(w Writer, value []byte) error {
	return w.WriteString("'\\x" + strings.ToUpper(fmt.Sprintf("%x", value)) + "'")
}

func (postgres) WriteParamPlaceholder(w Writer, paramIndex int) error {
	return w.WriteString("$" + strconv.Itoa(paramIndex))
}

func (postgres) WriteStringConcat(w Writer, lhs, rhs WriteFunc) error {
	e := &emitter{w: w}
	e.f(lhs)
	e.s(" || ")
	e.f(rhs)

	return e.err
}

func (postgres) WriteRegexMatch(w Writer, target WriteFunc, pattern string, caseInsensitive bool) error {
	e := &emitter{w: w}
	e.f(target)

	if caseInsensitive {
		e.s(" ~* '")
	} else {
		e.s(" ~ '")
	}

	e.s(escapeSingleQuotes(pattern))
	e.s("'")

	return e.err
}

func (postgres) WriteLikeEscape(w Writer) error {
	return w.WriteString(` ESCAPE E'\\'`)
}

func (postgres) WriteArrayMembership(w Writer, elem, array WriteFunc) error {
	e := &emitter{w: w}
	e.f(elem)
	e.s(" = ANY(")
	e.f(array)
	e.s(")")

	return e.err
}

func (postgres) WriteCastToNumeric(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.f(expr)
	e.s("::numeric")

	return e.err
}

func (postgres) WriteTypeName(w Writer, celTypeName string) error {
	sql, ok := postgresTypeMap[celTypeName]
	if !ok {
		sql = strings.ToUpper(celTypeName)
	}

	return w.WriteString(sql)
}

func (postgres) WriteEpochExtract(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("EXTRACT(EPOCH FROM ")
	e.f(expr)
	e.s(")::bigint")

	return e.err
}

func (postgres) WriteTimestampCast(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("CAST(")
	e.f(expr)
	e.s(" AS TIMESTAMP WITH TIME ZONE)")

	return e.err
}

func (postgres) WriteArrayLiteralOpen(w Writer) error  { return w.WriteString("ARRAY[") }
func (postgres) WriteArrayLiteralClose(w Writer) error { return w.WriteString("]") }

func (postgres) WriteArrayLength(w Writer, dimension int, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("COALESCE(ARRAY_LENGTH(")
	e.f(expr)
	e.s(", " + strconv.Itoa(dimension) + "), 0)")

	return e.err
}

func (postgres) WriteListIndex(w Writer, array, index WriteFunc) error {
	e := &emitter{w: w}
	e.f(array)
	e.s("[")
	e.f(index)
	e.s(" + 1]")

	return e.err
}

func (postgres) WriteListIndexConst(w Writer, array WriteFunc, index int) error {
	e := &emitter{w: w}
	e.f(array)
	e.s("[" + strconv.Itoa(index+1) + "]")

	return e.err
}

func (postgres) WriteEmptyTypedArray(w Writer, typeName string) error {
	return w.WriteString("ARRAY[]::" + typeName + "[]")
}

func (postgres) WriteJSONFieldAccess(w Writer, base WriteFunc, fieldName string, isFinal bool) error {
	e := &emitter{w: w}
	e.f(base)

	if isFinal {
		e.s("->>'" + escapeSingleQuotes(fieldName) + "'")
	} else {
		e.s("->'" + escapeSingleQuotes(fieldName) + "'")
	}

	return e.err
}

func (postgres) WriteJSONExistence(w Writer, isJSONB bool, fieldName string, base WriteFunc) error {
	e := &emitter{w: w}
	esc := escapeSingleQuotes(fieldName)

	if isJSONB {
		e.f(base)
		e.s(" ? '" + esc + "'")
	} else {
		e.f(base)
		e.s("->'" + esc + "' IS NOT NULL")
	}

	return e.err
}

func (postgres) WriteJSONArrayElements(w Writer, isJSONB, asText bool, expr WriteFunc) error {
	var fn string

	switch {
	case isJSONB && asText:
		fn = "jsonb_array_elements_text"
	case isJSONB:
		fn = "jsonb_array_elements"
	case asText:
		fn = "json_array_elements_text"
	default:
		fn = "json_array_elements"
	}

	e := &emitter{w: w}
	e.s(fn + "(")
	e.f(expr)
	e.s(")")

	return e.err
}

func (postgres) WriteJSONArrayLength(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("COALESCE(jsonb_array_length(")
	e.f(expr)
	e.s("), 0)")

	return e.err
}

func (postgres) WriteJSONArrayMembership(w Writer, jsonFunc string, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("ANY(ARRAY(SELECT " + jsonFunc + "(")
	e.f(expr)
	e.s(")))")

	return e.err
}

func (postgres) WriteNestedJSONArrayMembership(w Writer, expr WriteFunc) error {
	e := &emitter{w: w}
	e.s("ANY(ARRAY(SELECT jsonb_array_elements_text(")
	e.f(expr)
	e.s(")))")

	return e.err
}

func (postgres) WriteDuration(w Writer, value int64, unit string) error {
	return w.WriteString("INTERVAL " + strconv.FormatInt(value, 10) + " " + unit)
}

func (postgres) WriteInterval(w Writer, value WriteFunc, unit string) error {
	e := &emitter{w: w}
	e.s("INTERVAL ")
	e.f(value)
	e.s(" " + unit)

	return e.err
}

func (postgres) WriteExtract(w Writer, part string, expr WriteFunc, tz WriteFunc) error {
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

func (postgres) WriteTimestampArithmetic(w Writer, op string, ts, dur WriteFunc) error {
	e := &emitter{w: w}
	e.f(ts)
	e.s(" " + op + " ")
	e.f(dur)

	return e.err
}

func (postgres) WriteContains(w Writer, haystack, needle WriteFunc) error {
	e := &emitter{w: w}
	e.s("POSITION(")
	e.f(needle)
	e.s(" IN ")
	e.f(haystack)
	e.s(") > 0")

	return e.err
}

func (postgres) WriteSplit(w Writer, str, delim WriteFunc) error {
	e := &emitter{w: w}
	e.s("STRING_TO_ARRAY(")
	e.f(str)
	e.s(", ")
	e.f(delim)
	e.s(")")

	return e.err
}

func (postgres) WriteSplitWithLimit(w Writer, str, delim WriteFunc, limit int) error {
	e := &emitter{w: w}
	e.s("(STRING_TO_ARRAY(")
	e.f(str)
	e.s(", ")
	e.f(delim)
	e.s("))[1:" + strconv.Itoa(limit) + "]")

	return e.err
}

func (postgres) WriteJoin(w Writer, array, delim WriteFunc) error {
	e := &emitter{w: w}
	e.s("ARRAY_TO_STRING(")
	e.f(array)
	e.s(", ")
	e.f(delim)
	e.s(", '')")

	return e.err
}

func (postgres) WriteUnnest(w Writer, source WriteFunc) error {
	e := &emitter{w: w}
	e.s("UNNEST(")
	e.f(source)
	e.s(")")

	return e.err
}

func (postgres) WriteArraySubqueryOpen(w Writer) error  { return w.WriteString("ARRAY(SELECT ") }
func (postgres) WriteArraySubqueryExprClose(Writer) error { return nil }

func (postgres) WriteStructOpen(w Writer) error  { return w.WriteString("ROW(") }
func (postgres) WriteStructClose(w Writer) error { return w.WriteString(")") }

func (postgres) ConvertRegex(re2Pattern string) (string, bool, error) {
	return convertRE2ToPOSIX(re2Pattern)
}

func (postgres) MaxIdentifierLength() int { return 63 }

func (postgres) ValidateFieldName(name string) error {
	return validateFieldName(name, 63, postgresReserved)
}

func (postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (postgres) SupportsNativeArrays() bool { return true }
func (postgres) SupportsJSONB() bool        { return true }
