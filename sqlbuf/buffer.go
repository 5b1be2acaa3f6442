// Package sqlbuf implements the Output Buffer and resource Limits (C3): an
// append-only writer that tracks cumulative output length, recursion depth,
// and comprehension nesting, and fails closed before descent whenever a
// limit would be exceeded (§4.3).
package sqlbuf

import (
	"errors"
	"fmt"
	"strings"
)

// Limits bounds a single translation. Defaults match §6.2.
type Limits struct {
	MaxOutputLength         int
	MaxDepth                int
	MaxComprehensionNesting int
	MaxPatternLength        int
	MaxIdentifierLength     int
	MaxBytesLiteral         int
}

// DefaultLimits returns the spec's default resource limits.
func DefaultLimits() Limits {
	return Limits{
		MaxOutputLength:         50000,
		MaxDepth:                100,
		MaxComprehensionNesting: 3,
		MaxPatternLength:        500,
		MaxIdentifierLength:     63,
		MaxBytesLiteral:         10000,
	}
}

var (
	// ErrDepthExceeded is returned when AST recursion depth exceeds MaxDepth.
	ErrDepthExceeded = errors.New("depth exceeded")
	// ErrOutputTooLarge is returned when cumulative output length exceeds MaxOutputLength.
	ErrOutputTooLarge = errors.New("output too large")
	// ErrComprehensionTooDeep is returned when comprehension nesting exceeds MaxComprehensionNesting.
	ErrComprehensionTooDeep = errors.New("comprehension nesting too deep")
	// ErrPatternTooLong is returned when a regex pattern exceeds MaxPatternLength.
	ErrPatternTooLong = errors.New("pattern too long")
	// ErrBytesTooLarge is returned when a bytes literal exceeds MaxBytesLiteral.
	ErrBytesTooLarge = errors.New("bytes literal too large")
)

// Buffer is the append-only writer the translator emits SQL into. All three
// counters are checked before the write or descent they guard (WriteString,
// EnterDepth, EnterComprehension), never after, so an over-limit input never
// leaves partial output in the Buffer (P2).
type Buffer struct {
	sb strings.Builder

	limits Limits

	depth          int
	comprehensions int
}

// New creates an empty Buffer enforcing the given Limits.
func New(limits Limits) *Buffer {
	return &Buffer{limits: limits}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return b.sb.Len() }

// String returns the accumulated SQL text.
func (b *Buffer) String() string { return b.sb.String() }

// WriteString appends s, failing with ErrOutputTooLarge if doing so would
// exceed MaxOutputLength. On failure nothing is appended.
func (b *Buffer) WriteString(s string) error {
	if b.sb.Len()+len(s) > b.limits.MaxOutputLength {
		return fmt.Errorf("%w: limit %d bytes", ErrOutputTooLarge, b.limits.MaxOutputLength)
	}

	b.sb.WriteString(s)

	return nil
}

// EnterDepth checks the current recursion depth against MaxDepth *before*
// incrementing, returning a func to pop the frame on the way back out. The
// caller must defer the returned func only after checking the error.
func (b *Buffer) EnterDepth() (func(), error) {
	if b.depth >= b.limits.MaxDepth {
		return func() {}, fmt.Errorf("%w: limit %d", ErrDepthExceeded, b.limits.MaxDepth)
	}

	b.depth++

	return func() { b.depth-- }, nil
}

// EnterComprehension checks comprehension nesting against
// MaxComprehensionNesting before incrementing.
func (b *Buffer) EnterComprehension() (func(), error) {
	if b.comprehensions >= b.limits.MaxComprehensionNesting {
		return func() {}, fmt.Errorf("%w: limit %d", ErrComprehensionTooDeep, b.limits.MaxComprehensionNesting)
	}

	b.comprehensions++

	return func() { b.comprehensions-- }, nil
}

// CheckPatternLength validates a regex pattern's length before it is handed
// to a dialect's regex translator.
func (b *Buffer) CheckPatternLength(pattern string) error {
	if len(pattern) > b.limits.MaxPatternLength {
		return fmt.Errorf("%w: limit %d", ErrPatternTooLong, b.limits.MaxPatternLength)
	}

	return nil
}

// CheckBytesLiteral validates a bytes literal's length before rendering it.
func (b *Buffer) CheckBytesLiteral(value []byte) error {
	if len(value) > b.limits.MaxBytesLiteral {
		return fmt.Errorf("%w: limit %d", ErrBytesTooLarge, b.limits.MaxBytesLiteral)
	}

	return nil
}

// MaxIdentifierLength reports the configured identifier length cap. No
// caller in this module reads it: field names are validated against each
// dialect's own fixed MaxIdentifierLength instead.
func (b *Buffer) MaxIdentifierLength() int { return b.limits.MaxIdentifierLength }
