package parser

import (
	"strconv"
	"strings"
)

const (
	selectorTypes = "parse"

	// literalChars ends with the one class variables may not use.
	literalChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_."
)

var variableChars = literalChars[:len(literalChars)-1]

// Classify decides the literal kind of a trimmed token. The checks run in
// priority order and the first match wins; KindUnknown means the token is
// not a literal.
func Classify(text string) NodeKind {
	switch {
	case text == "":
		return KindUnknown
	case isComment(text):
		return KindComment
	case isInt(text):
		return KindInt
	case isFloat(text):
		return KindFloat
	case text == "~":
		return KindTilde
	case text == "^":
		return KindCaret
	case len(text) > 1 && text[0] == '@' && strings.IndexByte(selectorTypes, text[1]) >= 0:
		return KindSelector
	case len(text) > 1 && text[0] == '$' && allIn(text[1:], variableChars):
		return KindVariable
	case isQuoted(text, "\"") || isQuoted(text, "'"):
		return KindString
	case len(text) > 1 && strings.HasPrefix(text, "`") && strings.HasSuffix(text, "`"):
		return KindMultilineString
	case allIn(text, literalChars):
		return KindGenericLiteral
	}
	return KindUnknown
}

func isComment(text string) bool {
	return (strings.HasPrefix(text, "//") || strings.HasPrefix(text, "#")) &&
		!strings.Contains(text, "\n")
}

func isInt(text string) bool {
	_, err := strconv.ParseInt(text, 10, 32)
	return err == nil
}

// isFloat only accepts numeric-looking text so that words such as "inf" or
// "NaN" stay literals.
func isFloat(text string) bool {
	switch c := text[0]; {
	case c >= '0' && c <= '9', c == '.', c == '+', c == '-':
	default:
		return false
	}
	_, err := strconv.ParseFloat(text, 32)
	return err == nil
}

// isQuoted reports whether text holds exactly one quote pair with no line
// break in any part.
func isQuoted(text, quote string) bool {
	parts := strings.Split(text, quote)
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if strings.ContainsAny(part, "\r\n") {
			return false
		}
	}
	return true
}

func allIn(text, set string) bool {
	for i := 0; i < len(text); i++ {
		if strings.IndexByte(set, text[i]) < 0 {
			return false
		}
	}
	return true
}

// isCommentToken reports tokens the cursor skips over.
func isCommentToken(text string) bool {
	return strings.HasPrefix(text, "//") || strings.HasPrefix(text, "#")
}
