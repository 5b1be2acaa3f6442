package translator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shibukawa/cel2sql/ast"
)

// literal renders one Literal node through the Parameter Binder (C4), which
// decides between inline escaping and placeholder allocation per the
// configured Mode. Bool and null spellings are dialect-universal SQL and
// never routed through the dialect (§4.4 lists only string/bytes/placeholder
// formatting as dialect-specific).
func (t *Translator) literal(n *ast.Literal) (WriteFunc, valueType, error) {
	switch n.Kind {
	case ast.LiteralNull:
		return t.lit("NULL"), tNull, nil
	case ast.LiteralBool:
		v, _ := n.Value.(bool)
		w := func() error { return t.binder.WriteBool(t.buf, v) }
		return w, tBool, nil
	case ast.LiteralInt:
		v, _ := n.Value.(int64)
		w := func() error { return t.binder.WriteInt(t.buf, v) }
		return w, tInt, nil
	case ast.LiteralUint:
		v, _ := n.Value.(uint64)
		w := func() error { return t.binder.WriteUint(t.buf, v) }
		return w, tUint, nil
	case ast.LiteralDouble:
		v, _ := n.Value.(float64)
		w := func() error { return t.binder.WriteDouble(t.buf, v) }
		return w, tDouble, nil
	case ast.LiteralString:
		v, _ := n.Value.(string)
		w := func() error { return t.binder.WriteString(t.buf, v) }
		return w, tString, nil
	case ast.LiteralBytes:
		v, ok := n.Value.([]byte)
		if !ok {
			if s, ok2 := n.Value.(string); ok2 {
				v = []byte(s)
			}
		}

		if err := t.buf.CheckBytesLiteral(v); err != nil {
			return nil, tUnknown, err
		}

		w := func() error { return t.binder.WriteBytes(t.buf, v) }

		return w, tBytes, nil
	case ast.LiteralDuration:
		return t.durationLiteral(n)
	case ast.LiteralTimestamp:
		return t.timestampLiteral(n)
	default:
		return nil, tUnknown, fmt.Errorf("%w: literal kind %d", ErrInternal, n.Kind)
	}
}

// durationLiteral renders a CEL duration constant (nanoseconds as int64, or
// a Go time.Duration, or the "1h2m3s"-style string cel-go sometimes carries
// before evaluation) via the dialect's WriteDuration. Durations are always
// rendered inline: they participate in dialect-specific INTERVAL/DATE_ADD
// syntax (§4.6.2 open question (b)), not as bindable scalars, so the Binder
// is bypassed here regardless of Mode.
func (t *Translator) durationLiteral(n *ast.Literal) (WriteFunc, valueType, error) {
	d, err := durationValue(n.Value)
	if err != nil {
		return nil, tUnknown, fmt.Errorf("%w: %s", ErrTypeMismatch, err)
	}

	seconds := int64(d / time.Second)
	w := func() error { return t.d.WriteDuration(t.buf, seconds, "SECOND") }

	return w, tDuration, nil
}

func durationValue(v any) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case int64:
		return time.Duration(val), nil
	case string:
		return time.ParseDuration(val)
	default:
		return 0, fmt.Errorf("unsupported duration payload %T", v)
	}
}

// timestampLiteral renders a CEL timestamp constant through the dialect's
// timestamp cast, from a RFC3339 string literal (the form CEL's timestamp()
// constructor and literal parser both produce).
func (t *Translator) timestampLiteral(n *ast.Literal) (WriteFunc, valueType, error) {
	s, err := timestampString(n.Value)
	if err != nil {
		return nil, tUnknown, fmt.Errorf("%w: %s", ErrTypeMismatch, err)
	}

	w := func() error {
		return t.d.WriteTimestampCast(t.buf, t.lit("'"+strings.ReplaceAll(s, "'", "''")+"'"))
	}

	return w, tTimestamp, nil
}

func timestampString(v any) (string, error) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case string:
		return val, nil
	default:
		return "", fmt.Errorf("unsupported timestamp payload %T", v)
	}
}

func formatIntLiteral(v int64) string { return strconv.FormatInt(v, 10) }
