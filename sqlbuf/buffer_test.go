package sqlbuf

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestWriteStringFailsClosedOverOutputLimit(t *testing.T) {
	b := New(Limits{MaxOutputLength: 5})

	assert.NoError(t, b.WriteString("abcde"))
	err := b.WriteString("f")
	assert.IsError(t, err, ErrOutputTooLarge)
	assert.Equal(t, "abcde", b.String())
}

func TestEnterDepthChecksBeforeIncrementing(t *testing.T) {
	b := New(Limits{MaxDepth: 1})

	pop, err := b.EnterDepth()
	assert.NoError(t, err)

	_, err = b.EnterDepth()
	assert.IsError(t, err, ErrDepthExceeded)

	pop()

	_, err = b.EnterDepth()
	assert.NoError(t, err)
}

func TestEnterComprehensionChecksBeforeIncrementing(t *testing.T) {
	b := New(Limits{MaxComprehensionNesting: 1})

	pop, err := b.EnterComprehension()
	assert.NoError(t, err)

	_, err = b.EnterComprehension()
	assert.IsError(t, err, ErrComprehensionTooDeep)

	pop()

	_, err = b.EnterComprehension()
	assert.NoError(t, err)
}

func TestCheckPatternLength(t *testing.T) {
	b := New(Limits{MaxPatternLength: 3})

	assert.NoError(t, b.CheckPatternLength("abc"))
	assert.IsError(t, b.CheckPatternLength("abcd"), ErrPatternTooLong)
}

func TestCheckBytesLiteral(t *testing.T) {
	b := New(Limits{MaxBytesLiteral: 2})

	assert.NoError(t, b.CheckBytesLiteral([]byte{1, 2}))
	assert.IsError(t, b.CheckBytesLiteral([]byte{1, 2, 3}), ErrBytesTooLarge)
}

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()

	assert.Equal(t, 50000, limits.MaxOutputLength)
	assert.Equal(t, 100, limits.MaxDepth)
	assert.Equal(t, 3, limits.MaxComprehensionNesting)
}
