package parser

import (
	"fmt"
	"io"
	"strings"
)

type NodeKind int

const (
	KindUnknown NodeKind = iota

	// Constructs
	KindClass
	KindFunction
	KindImport
	KindNew
	KindBlock

	// Control keywords
	KindTrue
	KindFalse
	KindWhile
	KindDo
	KindFor
	KindBreak

	// Arithmetic and assignment operators
	KindIncrement
	KindDecrement
	KindPlus
	KindSubtract
	KindMultiply
	KindDivide
	KindRemainder
	KindPlusEqual
	KindSubtractEqual
	KindMultiplyEqual
	KindDivideEqual
	KindRemainderEqual
	KindNullCoalesceAssign
	KindSuccessAssign
	KindSwap

	// Logical
	KindOr
	KindAnd
	KindNot

	// Punctuation
	KindLeftBrace
	KindRightBrace
	KindLeftParen
	KindRightParen
	KindSemicolon
	KindColon
	KindArrow

	// Relational
	KindGreaterThan
	KindLessThan
	KindGreaterOrEqual
	KindLessOrEqual
	KindAssign
	KindEqual
	KindDot

	// Literal classes
	KindComment
	KindInt
	KindFloat
	KindTilde
	KindCaret
	KindSelector
	KindVariable
	KindString
	KindMultilineString
	KindGenericLiteral
)

var nodeKindNames = map[NodeKind]string{
	KindUnknown:            "Unknown",
	KindClass:              "Class",
	KindFunction:           "Function",
	KindImport:             "Import",
	KindNew:                "New",
	KindBlock:              "Block",
	KindTrue:               "True",
	KindFalse:              "False",
	KindWhile:              "While",
	KindDo:                 "Do",
	KindFor:                "For",
	KindBreak:              "Break",
	KindIncrement:          "Increment",
	KindDecrement:          "Decrement",
	KindPlus:               "Plus",
	KindSubtract:           "Subtract",
	KindMultiply:           "Multiply",
	KindDivide:             "Divide",
	KindRemainder:          "Remainder",
	KindPlusEqual:          "PlusEqual",
	KindSubtractEqual:      "SubtractEqual",
	KindMultiplyEqual:      "MultiplyEqual",
	KindDivideEqual:        "DivideEqual",
	KindRemainderEqual:     "RemainderEqual",
	KindNullCoalesceAssign: "NullCoalesceAssign",
	KindSuccessAssign:      "SuccessAssign",
	KindSwap:               "Swap",
	KindOr:                 "Or",
	KindAnd:                "And",
	KindNot:                "Not",
	KindLeftBrace:          "LeftBrace",
	KindRightBrace:         "RightBrace",
	KindLeftParen:          "LeftParen",
	KindRightParen:         "RightParen",
	KindSemicolon:          "Semicolon",
	KindColon:              "Colon",
	KindArrow:              "Arrow",
	KindGreaterThan:        "GreaterThan",
	KindLessThan:           "LessThan",
	KindGreaterOrEqual:     "GreaterOrEqual",
	KindLessOrEqual:        "LessOrEqual",
	KindAssign:             "Assign",
	KindEqual:              "Equal",
	KindDot:                "Dot",
	KindComment:            "Comment",
	KindInt:                "Int",
	KindFloat:              "Float",
	KindTilde:              "Tilde",
	KindCaret:              "Caret",
	KindSelector:           "Selector",
	KindVariable:           "Variable",
	KindString:             "String",
	KindMultilineString:    "MultilineString",
	KindGenericLiteral:     "GenericLiteral",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// fixedKinds maps every keyword, operator and punctuation token that is
// recognized by exact comparison.
var fixedKinds = map[string]NodeKind{
	"true":  KindTrue,
	"false": KindFalse,
	"while": KindWhile,
	"do":    KindDo,
	"for":   KindFor,
	"break": KindBreak,

	"++":  KindIncrement,
	"--":  KindDecrement,
	"+":   KindPlus,
	"-":   KindSubtract,
	"*":   KindMultiply,
	"/":   KindDivide,
	"%":   KindRemainder,
	"+=":  KindPlusEqual,
	"-=":  KindSubtractEqual,
	"*=":  KindMultiplyEqual,
	"/=":  KindDivideEqual,
	"%=":  KindRemainderEqual,
	"??=": KindNullCoalesceAssign,
	"?=":  KindSuccessAssign,
	"><":  KindSwap,

	"||": KindOr,
	"&&": KindAnd,
	"!":  KindNot,

	"{":  KindLeftBrace,
	"}":  KindRightBrace,
	"(":  KindLeftParen,
	")":  KindRightParen,
	";":  KindSemicolon,
	":":  KindColon,
	"=>": KindArrow,

	">":  KindGreaterThan,
	"<":  KindLessThan,
	">=": KindGreaterOrEqual,
	"<=": KindLessOrEqual,
	"=":  KindAssign,
	"==": KindEqual,
	".":  KindDot,
}

var kindSymbols = func() map[NodeKind]string {
	m := make(map[NodeKind]string, len(fixedKinds))
	for sym, kind := range fixedKinds {
		m[kind] = sym
	}
	return m
}()

// describe renders a kind the way diagnostics quote it: punctuation as its
// symbol, everything else by name.
func describe(kind NodeKind) string {
	if sym, ok := kindSymbols[kind]; ok {
		return "'" + sym + "'"
	}
	switch kind {
	case KindGenericLiteral:
		return "name"
	case KindString:
		return "string"
	}
	return kind.String()
}

// Node is one parsed construct. Children are owned by their parent; a node
// without children has a nil slice.
type Node struct {
	Kind     NodeKind
	Value    string
	Range    *Range
	Offset   int
	Children []*Node
}

func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

// IsEmpty reports whether the node carries neither a range nor a value.
func (n *Node) IsEmpty() bool {
	return n.Range == nil && n.Value == ""
}

func (n *Node) FirstChildOfKind(kind NodeKind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

// Flatten returns n followed by its descendants in pre-order.
func (n *Node) Flatten() []*Node {
	return n.appendFlat(nil)
}

func (n *Node) appendFlat(out []*Node) []*Node {
	out = append(out, n)
	for _, child := range n.Children {
		out = child.appendFlat(out)
	}
	return out
}

func (n *Node) String() string {
	var sb strings.Builder
	n.PrintPretty(&sb, "", true)
	return sb.String()
}

// PrintPretty writes n and its subtree using box-drawing prefixes, one
// "{kind} {value} {range}" line per node.
func (n *Node) PrintPretty(w io.Writer, indent string, last bool) {
	branch, next := "├── ", "│   "
	if last {
		branch, next = "└── ", "    "
	}
	rng := ""
	if n.Range != nil {
		rng = n.Range.String()
	}
	fmt.Fprintf(w, "%s%s%s %s %s\n", indent, branch, n.Kind, n.Value, rng)
	for i, child := range n.Children {
		child.PrintPretty(w, indent+next, i == len(n.Children)-1)
	}
}
