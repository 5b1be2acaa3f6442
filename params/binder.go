// Package params implements a per-call literal escaper or placeholder
// allocator, switched by a configured Mode, consulting the active dialect
// for identifier-independent literal spellings (placeholder syntax,
// string/bytes literal escaping). Double literals render through
// shopspring/decimal so exact values survive without floating-point drift;
// int and uint literals render through strconv.
package params

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/cel2sql/dialect"
)

// Binder renders literal values either inline (escaped per dialect) or as an
// ordinal placeholder with the value appended to Parameters, per §4.4. One
// Binder is scoped to a single translation, mirroring Translator and Buffer.
type Binder struct {
	d             dialect.Dialect
	parameterized bool
	values        []any
}

// NewBinder creates a Binder for one translation. When parameterized is
// false every literal is written inline; when true, every literal (except
// NULL and boolean, which have no dialect placeholder form worth spending an
// ordinal on) reserves the next ordinal unconditionally — no de-duplication,
// per §4.4.
func NewBinder(d dialect.Dialect, parameterized bool) *Binder {
	return &Binder{d: d, parameterized: parameterized}
}

// Parameters returns the ordered values bound so far, index i corresponding
// to placeholder i+1.
func (b *Binder) Parameters() []any {
	return b.values
}

func (b *Binder) placeholder(w dialect.Writer, value any) error {
	b.values = append(b.values, value)
	return b.d.WriteParamPlaceholder(w, len(b.values))
}

// WriteString writes a string literal: single-quoted and escaped inline, or
// a placeholder binding value in parameterized mode.
func (b *Binder) WriteString(w dialect.Writer, value string) error {
	if b.parameterized {
		return b.placeholder(w, value)
	}

	return b.d.WriteStringLiteral(w, value)
}

// WriteBytes writes a bytes literal per the dialect's hex/blob/bytes
// spelling inline, or a placeholder binding the raw []byte in parameterized
// mode.
func (b *Binder) WriteBytes(w dialect.Writer, value []byte) error {
	if b.parameterized {
		return b.placeholder(w, value)
	}

	return b.d.WriteBytesLiteral(w, value)
}

// WriteInt writes a signed integer literal: numeric tokens need no
// dialect-specific escaping, so the inline spelling is always the decimal
// form; only the mode decides whether it is also reserved as a placeholder.
func (b *Binder) WriteInt(w dialect.Writer, value int64) error {
	if b.parameterized {
		return b.placeholder(w, value)
	}

	return w.WriteString(strconv.FormatInt(value, 10))
}

// WriteUint writes an unsigned integer literal.
func (b *Binder) WriteUint(w dialect.Writer, value uint64) error {
	if b.parameterized {
		return b.placeholder(w, value)
	}

	return w.WriteString(strconv.FormatUint(value, 10))
}

// WriteDouble writes a floating-point literal using shopspring/decimal for
// exact base-10 rendering (avoiding strconv.FormatFloat's occasional
// scientific notation, which several target dialects parse inconsistently
// inside a WHERE clause), always carrying at least one fractional digit so
// the token is unambiguously non-integer SQL.
func (b *Binder) WriteDouble(w dialect.Writer, value float64) error {
	if b.parameterized {
		return b.placeholder(w, value)
	}

	s := decimal.NewFromFloat(value).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return w.WriteString(s)
}

// WriteBool writes the dialect-universal boolean spelling. Booleans are
// never parameterized: every target dialect accepts TRUE/FALSE as a literal
// token in a WHERE clause, so spending a placeholder ordinal on one would
// only shrink the useful signal of "this value came from user input."
func (b *Binder) WriteBool(w dialect.Writer, value bool) error {
	if value {
		return w.WriteString("TRUE")
	}

	return w.WriteString("FALSE")
}

// WriteNull writes the SQL NULL keyword. Like WriteBool, NULL is never
// parameterized — it is not a value the dialect driver can bind.
func (b *Binder) WriteNull(w dialect.Writer) error {
	return w.WriteString("NULL")
}
