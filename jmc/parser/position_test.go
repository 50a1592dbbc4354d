package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapperSource = "class Foo {\n    function bar() {\n        $x = 1;\n    }\n}\n\n// tail"

func TestMapperPositionRoundTrip(t *testing.T) {
	m := NewMapper(mapperSource, Lex(mapperSource))

	for line, text := range strings.Split(mapperSource, "\n") {
		for char := 0; char <= utf8.RuneCountInString(text); char++ {
			pos := Position{Line: line, Character: char}
			assert.Equal(t, pos, m.PositionOf(m.OffsetOfPosition(pos)), "position %s", pos)
		}
	}
}

func TestMapperTokenOffsets(t *testing.T) {
	toks := Lex(mapperSource)
	m := NewMapper(mapperSource, toks)

	sum := 0
	for i, raw := range toks.Raw {
		assert.Equal(t, sum, m.OffsetOfIndex(i))
		assert.Equal(t, sum, m.OffsetOfPosition(m.StartPositionOf(i)))
		sum += utf8.RuneCountInString(raw)
	}
	assert.Equal(t, sum, m.Size())
}

func TestMapperTokenRanges(t *testing.T) {
	text := "class Foo\n  {}"
	toks := Lex(text)
	require.Equal(t, []string{"class", "", "Foo", "", "{", "}"}, toks.Trimmed)
	m := NewMapper(text, toks)

	assert.Equal(t, Range{Start: Position{0, 0}, End: Position{0, 4}}, m.RangeOf(0, false))
	assert.Equal(t, Range{Start: Position{0, 0}, End: Position{0, 5}}, m.RangeOf(0, true))
	assert.Equal(t, Range{Start: Position{0, 6}, End: Position{0, 8}}, m.RangeOf(2, false))
	assert.Equal(t, Position{1, 2}, m.StartPositionOf(4))
	assert.Equal(t, Position{1, 3}, m.EndPositionOf(4, true))
	assert.Equal(t, Position{1, 4}, m.EndOfDocument())
}

func TestMapperClampsOutOfRange(t *testing.T) {
	m := NewMapper("ab\ncd", Lex("ab\ncd"))

	assert.Equal(t, Position{1, 2}, m.PositionOf(99))
	assert.Equal(t, Position{0, 0}, m.PositionOf(-3))
	assert.Equal(t, 5, m.OffsetOfPosition(Position{Line: 7}))
	assert.Equal(t, 0, m.OffsetOfIndex(-1))
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: Position{1, 4}, End: Position{2, 1}}

	assert.True(t, r.Contains(Position{1, 4}))
	assert.True(t, r.Contains(Position{1, 80}))
	assert.True(t, r.Contains(Position{2, 1}))
	assert.False(t, r.Contains(Position{1, 3}))
	assert.False(t, r.Contains(Position{2, 2}))
}

func TestLineOf(t *testing.T) {
	text := "a\nbc\r\n\nd"
	assert.Equal(t, "a", LineOf(text, 0))
	assert.Equal(t, "bc\r", LineOf(text, 1))
	assert.Equal(t, "", LineOf(text, 2))
	assert.Equal(t, "d", LineOf(text, 3))
	assert.Equal(t, "", LineOf(text, 4))
}

func TestUTF16Columns(t *testing.T) {
	line := `$x = "😀é";`

	tests := []struct {
		runes int
		units int
	}{
		{0, 0},
		{6, 6},
		{7, 8},
		{8, 9},
		{10, 11},
		{12, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.units, UTF16Column(line, tt.runes), "rune column %d", tt.runes)
		assert.Equal(t, tt.runes, RuneColumn(line, tt.units), "utf-16 column %d", tt.units)
	}

	// Inside the surrogate pair.
	assert.Equal(t, 7, RuneColumn(line, 7))
}
