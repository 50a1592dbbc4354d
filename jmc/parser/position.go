package parser

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line and character pair. Characters are counted
// in runes.
type Position struct {
	Line      int
	Character int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies within r. Both ends are inclusive.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

func (r Range) String() string {
	return "[" + r.Start.String() + "-" + r.End.String() + "]"
}

// Mapper translates between absolute offsets, line/character positions and
// token indices for one lexed document.
type Mapper struct {
	// offsets[i] is the offset of raw token i; the final entry is the
	// document length.
	offsets    []int
	lengths    []int
	lineStarts []int
	size       int
}

func NewMapper(text string, toks Tokens) *Mapper {
	m := &Mapper{
		offsets:    make([]int, len(toks.Raw)+1),
		lengths:    make([]int, len(toks.Trimmed)),
		lineStarts: []int{0},
	}
	for i, raw := range toks.Raw {
		m.offsets[i+1] = m.offsets[i] + utf8.RuneCountInString(raw)
	}
	for i, trimmed := range toks.Trimmed {
		m.lengths[i] = utf8.RuneCountInString(trimmed)
	}

	offset := 0
	for _, r := range text {
		offset++
		if r == '\n' {
			m.lineStarts = append(m.lineStarts, offset)
		}
	}
	m.size = offset
	return m
}

// Size returns the document length in runes.
func (m *Mapper) Size() int {
	return m.size
}

// OffsetOfIndex sums the raw lengths of every token before index.
func (m *Mapper) OffsetOfIndex(index int) int {
	if index <= 0 {
		return 0
	}
	if index >= len(m.offsets) {
		return m.size
	}
	return m.offsets[index]
}

func (m *Mapper) OffsetOfPosition(pos Position) int {
	if pos.Line == 0 {
		return pos.Character
	}
	if pos.Line >= len(m.lineStarts) {
		return m.size
	}
	return m.lineStarts[pos.Line] + pos.Character
}

func (m *Mapper) PositionOf(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > m.size {
		offset = m.size
	}
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1
	return Position{Line: line, Character: offset - m.lineStarts[line]}
}

func (m *Mapper) StartPositionOf(index int) Position {
	return m.PositionOf(m.OffsetOfIndex(index))
}

// EndPositionOf returns the position of the last character of the token at
// index. Error ranges end one past it so the whole token is underlined.
func (m *Mapper) EndPositionOf(index int, isErrorRange bool) Position {
	start := m.OffsetOfIndex(index)
	length := 0
	if index >= 0 && index < len(m.lengths) {
		length = m.lengths[index]
	}
	end := start + length
	if !isErrorRange && length > 0 {
		end--
	}
	return m.PositionOf(end)
}

func (m *Mapper) RangeOf(index int, isErrorRange bool) Range {
	return Range{
		Start: m.StartPositionOf(index),
		End:   m.EndPositionOf(index, isErrorRange),
	}
}

// EndOfDocument is the position just past the final character.
func (m *Mapper) EndOfDocument() Position {
	return m.PositionOf(m.size)
}

// LineOf returns line n of text without its newline, or "" past the end.
func LineOf(text string, n int) string {
	for ; n > 0; n-- {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		return text[:nl]
	}
	return text
}

// UTF16Column converts a rune column on line to UTF-16 code units. Columns
// past the end of line count one unit per missing rune.
func UTF16Column(line string, col int) int {
	units, i := 0, 0
	for _, r := range line {
		if i >= col {
			return units
		}
		units += utf16Len(r)
		i++
	}
	return units + max(col-i, 0)
}

// RuneColumn converts a UTF-16 column on line to runes. A column that splits
// a surrogate pair moves to the end of that rune.
func RuneColumn(line string, units int) int {
	col, n := 0, 0
	for _, r := range line {
		if n >= units {
			return col
		}
		n += utf16Len(r)
		col++
	}
	return col + max(units-n, 0)
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
