package parser

import (
	"strings"
	"unicode"
)

// Tokens holds the two parallel views produced by the lexer. Raw keeps every
// character of the input, whitespace runs included, so that the raw entries
// concatenate back to the source. Trimmed has the same length with each
// entry stripped of surrounding whitespace; whitespace runs become "".
type Tokens struct {
	Raw     []string
	Trimmed []string
}

func (t Tokens) Len() int {
	return len(t.Trimmed)
}

// symbols is ordered longest first so scanOperator always takes the longest
// match.
var symbols = []string{
	"??=",
	"?=", "><", "=>", "==", ">=", "<=", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "||", "&&",
	"+", "-", "*", "/", "%", "!", "{", "}", "(", ")", "[", "]",
	";", ":", ",", ">", "<", "=", ".", "~", "^", "?", "&", "|",
}

const eof rune = -1

type lexer struct {
	input []rune
	pos   int
}

// Lex splits text into raw and trimmed token arrays.
func Lex(text string) Tokens {
	l := &lexer{input: []rune(text)}
	var split []string
	for l.pos < len(l.input) {
		start := l.pos
		l.scan()
		if l.pos == start {
			l.advance()
		}
		split = append(split, string(l.input[start:l.pos]))
	}
	return newTokens(split)
}

func newTokens(split []string) Tokens {
	var toks Tokens
	for _, s := range split {
		if s == "" {
			continue
		}
		toks.Raw = append(toks.Raw, s)
		toks.Trimmed = append(toks.Trimmed, strings.TrimSpace(s))
	}
	return toks
}

func (l *lexer) peek() rune {
	return l.peekN(0)
}

func (l *lexer) peekN(n int) rune {
	if l.pos+n >= len(l.input) {
		return eof
	}
	return l.input[l.pos+n]
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	ch := l.input[l.pos]
	l.pos++
	return ch
}

func (l *lexer) scan() {
	ch := l.peek()

	switch {
	case isSpace(ch):
		for isSpace(l.peek()) {
			l.advance()
		}
	case ch == '/' && l.peekN(1) == '/', ch == '#':
		l.scanLineComment()
	case ch == '"' || ch == '\'':
		l.scanString(ch)
	case ch == '`':
		l.scanMultilineString()
	case ch == '@' && isLetter(l.peekN(1)):
		l.scanSelector()
	case ch == '$' && isIdentPart(l.peekN(1)):
		l.advance()
		for isIdentPart(l.peek()) {
			l.advance()
		}
	case isDigit(ch):
		l.scanNumber()
	case isIdentStart(ch):
		l.scanIdent()
	default:
		l.scanOperator()
	}
}

func (l *lexer) scanLineComment() {
	for ch := l.peek(); ch != eof && ch != '\n'; ch = l.peek() {
		l.advance()
	}
}

func (l *lexer) scanString(quote rune) {
	l.advance()
	for {
		ch := l.peek()
		if ch == eof || ch == '\n' {
			return
		}
		l.advance()
		if ch == '\\' {
			if next := l.peek(); next != eof && next != '\n' {
				l.advance()
			}
			continue
		}
		if ch == quote {
			return
		}
	}
}

func (l *lexer) scanMultilineString() {
	l.advance()
	for {
		ch := l.advance()
		if ch == eof || ch == '`' {
			return
		}
		if ch == '\\' {
			l.advance()
		}
	}
}

func (l *lexer) scanSelector() {
	l.advance()
	for isLetter(l.peek()) {
		l.advance()
	}
	if l.peek() != '[' {
		return
	}
	depth := 0
	for {
		ch := l.peek()
		if ch == eof || ch == '\n' {
			return
		}
		l.advance()
		switch ch {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (l *lexer) scanNumber() {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
}

// scanIdent reads an identifier, joining dotted segments such as
// Class.method into one token.
func (l *lexer) scanIdent() {
	for {
		for isIdentPart(l.peek()) {
			l.advance()
		}
		if l.peek() != '.' || !isIdentStart(l.peekN(1)) {
			return
		}
		l.advance()
	}
}

func (l *lexer) scanOperator() {
	for _, sym := range symbols {
		if l.hasPrefix(sym) {
			l.pos += len(sym)
			return
		}
	}
	l.advance()
}

func (l *lexer) hasPrefix(sym string) bool {
	if l.pos+len(sym) > len(l.input) {
		return false
	}
	for i := 0; i < len(sym); i++ {
		if l.input[l.pos+i] != rune(sym[i]) {
			return false
		}
	}
	return true
}

func isSpace(ch rune) bool {
	return ch != eof && unicode.IsSpace(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch rune) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
