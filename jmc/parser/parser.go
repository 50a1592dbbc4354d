package parser

import (
	"context"
	"fmt"
	"strings"
)

// EndOfInput is the resume index returned once no meaningful token is left.
const EndOfInput = -1

// Outcome is the result of parsing at one cursor position: the node produced,
// if any, and the index to resume at.
type Outcome struct {
	Node   *Node
	Resume int
}

var constructKeywords = map[string]bool{
	"class":    true,
	"function": true,
	"import":   true,
	"new":      true,
}

var statementOperators = map[NodeKind]bool{
	KindIncrement:          true,
	KindDecrement:          true,
	KindAssign:             true,
	KindPlusEqual:          true,
	KindSubtractEqual:      true,
	KindMultiplyEqual:      true,
	KindDivideEqual:        true,
	KindRemainderEqual:     true,
	KindNullCoalesceAssign: true,
	KindSuccessAssign:      true,
	KindSwap:               true,
}

// Parser is a cursor-driven recursive-descent parser over the trimmed token
// array. It appends top-level nodes and diagnostics as it goes and never
// stops early on malformed input.
type Parser struct {
	ctx       context.Context
	toks      Tokens
	mapper    *Mapper
	fileTypes FileTypes

	lastValue int

	nodes []*Node
	errs  []Diagnostic
	jobs  []jsonJob
}

func newParser(ctx context.Context, toks Tokens, mapper *Mapper, fileTypes FileTypes) *Parser {
	p := &Parser{
		ctx:       ctx,
		toks:      toks,
		mapper:    mapper,
		fileTypes: fileTypes,
		lastValue: EndOfInput,
	}
	for i := toks.Len() - 1; i >= 0; i-- {
		if v := toks.Trimmed[i]; v != "" && !isCommentToken(v) {
			p.lastValue = i
			break
		}
	}
	return p
}

// skipToValue moves past empty and comment entries. When the input runs out
// it returns the last index and false.
func (p *Parser) skipToValue(index int) (int, bool) {
	if index < 0 {
		index = 0
	}
	n := p.toks.Len()
	for ; index < n; index++ {
		if v := p.toks.Trimmed[index]; v != "" && !isCommentToken(v) {
			return index, true
		}
	}
	return n - 1, false
}

func (p *Parser) nextIndex(index int) (int, bool) {
	return p.skipToValue(index + 1)
}

func (p *Parser) resumeAfter(index int) int {
	next, ok := p.nextIndex(index)
	if !ok {
		return EndOfInput
	}
	return next
}

// parseNext parses top-level constructs from index until the input is
// exhausted or ctx is cancelled.
func (p *Parser) parseNext(index int) error {
	index, ok := p.skipToValue(index)
	if !ok {
		return nil
	}
	for index != EndOfInput {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		out := p.parseOne(index, true)
		if out.Node != nil && !out.Node.IsEmpty() {
			p.nodes = append(p.nodes, out.Node)
		}
		if out.Resume != EndOfInput && out.Resume <= index {
			out.Resume = p.resumeAfter(index)
		}
		index = out.Resume
	}
	return nil
}

// parseOne parses the construct starting at index. Fixed tokens are matched
// first, then the classifier; statements are only attempted at the start of
// a top-level or block-level construct.
func (p *Parser) parseOne(index int, isTopLevelStart bool) Outcome {
	switch p.toks.Trimmed[index] {
	case "class":
		return p.parseClass(index)
	case "function":
		return p.parseFunction(index)
	case "import":
		return p.parseImport(index)
	case "new":
		return p.parseNew(index)
	}

	node := p.leaf(index)
	if isTopLevelStart && node.Kind == KindVariable {
		if out, ok := p.parseStatement(index, node); ok {
			return out
		}
	}
	return Outcome{Node: node, Resume: p.resumeAfter(index)}
}

// leaf builds the single-token node at index without descending into
// constructs.
func (p *Parser) leaf(index int) *Node {
	value := p.toks.Trimmed[index]
	rng := p.mapper.RangeOf(index, false)
	node := &Node{
		Value:  value,
		Range:  &rng,
		Offset: p.mapper.OffsetOfIndex(index),
	}
	if constructKeywords[value] {
		return node
	}
	if kind, ok := fixedKinds[value]; ok {
		node.Kind = kind
		return node
	}
	node.Kind = Classify(value)
	return node
}

// parseStatement parses `$var op rhs ;` into a node of the operator's kind
// whose children are the variable and the right-hand tokens.
func (p *Parser) parseStatement(index int, variable *Node) (Outcome, bool) {
	opIndex, ok := p.nextIndex(index)
	if !ok {
		return Outcome{}, false
	}
	stmt := p.leaf(opIndex)
	if !statementOperators[stmt.Kind] {
		return Outcome{}, false
	}
	stmt.Offset = variable.Offset
	stmt.AddChild(variable)

	depth := 0
	last := opIndex
	at, ok := p.nextIndex(opIndex)
	for ok {
		v := p.toks.Trimmed[at]
		if depth == 0 {
			if v == ";" {
				stmt.Range = p.span(index, at)
				return Outcome{Node: stmt, Resume: p.resumeAfter(at)}, true
			}
			if v == "}" || constructKeywords[v] {
				break
			}
		}
		switch v {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		}
		stmt.AddChild(p.leaf(at))
		last = at
		at, ok = p.nextIndex(at)
	}

	p.errorAt(last, "expected ';' after %s statement", stmt.Value)
	stmt.Range = p.span(index, last)
	if !ok {
		return Outcome{Node: stmt, Resume: EndOfInput}, true
	}
	return Outcome{Node: stmt, Resume: at}, true
}

// parseImport parses `import "path";`.
func (p *Parser) parseImport(index int) Outcome {
	node := &Node{Kind: KindImport, Offset: p.mapper.OffsetOfIndex(index)}

	q := p.query(index)
	matched, ok := q.ExpectList(KindString, KindSemicolon)
	if len(matched) > 0 {
		node.AddChild(matched[0])
	}
	if ok {
		node.Range = p.span(index, q.Index())
		return Outcome{Node: node, Resume: p.resumeAfter(q.Index())}
	}

	p.mismatch(q, []NodeKind{KindString, KindSemicolon}[len(matched):]...)
	last := p.syncTo(q.reached, ";")
	node.Range = p.span(index, last)
	return Outcome{Node: node, Resume: p.resumeAfter(last)}
}

// parseClass parses `class Name { (function|new)* }`. Anything else in the
// body is skipped one token at a time.
func (p *Parser) parseClass(index int) Outcome {
	node := &Node{Kind: KindClass, Offset: p.mapper.OffsetOfIndex(index)}

	q := p.query(index)
	matched, ok := q.ExpectList(KindGenericLiteral, KindLeftBrace)
	if len(matched) > 0 {
		node.Value = matched[0].Value
	}
	if !ok {
		p.mismatch(q, []NodeKind{KindGenericLiteral, KindLeftBrace}[len(matched):]...)
		node.Range = p.span(index, q.reached)
		return Outcome{Node: node, Resume: q.failed}
	}

	skipping := false
	at := p.resumeAfter(q.Index())
	for at != EndOfInput {
		switch v := p.toks.Trimmed[at]; v {
		case "}":
			node.Range = p.span(index, at)
			return Outcome{Node: node, Resume: p.resumeAfter(at)}
		case "function", "new":
			out := p.parseOne(at, false)
			node.AddChild(out.Node)
			at = p.progress(at, out.Resume)
			skipping = false
		default:
			if !skipping {
				p.errorAt(at, "unexpected %q in class %s, expected 'function' or 'new'", v, node.Value)
				skipping = true
			}
			at = p.resumeAfter(at)
		}
	}

	p.errorAtEnd("expected '}' to close class %s", node.Value)
	node.Range = p.span(index, p.lastValue)
	return Outcome{Node: node, Resume: EndOfInput}
}

// parseFunction parses `function name() { ... }`.
func (p *Parser) parseFunction(index int) Outcome {
	node := &Node{Kind: KindFunction, Offset: p.mapper.OffsetOfIndex(index)}

	q := p.query(index)
	header := []NodeKind{KindGenericLiteral, KindLeftParen, KindRightParen, KindLeftBrace}
	matched, ok := q.ExpectList(header...)
	if len(matched) > 0 {
		node.Value = matched[0].Value
	}
	if !ok {
		p.mismatch(q, header[len(matched):]...)
		node.Range = p.span(index, q.reached)
		return Outcome{Node: node, Resume: q.failed}
	}

	body := p.parseBlock(q.Index())
	node.AddChild(body.Node)
	node.Range = &Range{Start: p.mapper.StartPositionOf(index), End: body.Node.Range.End}
	return Outcome{Node: node, Resume: body.Resume}
}

// parseBlock parses the statements between the brace at open and its
// matching close brace.
func (p *Parser) parseBlock(open int) Outcome {
	block := &Node{Kind: KindBlock, Offset: p.mapper.OffsetOfIndex(open)}

	depth := 0
	at := p.resumeAfter(open)
	for at != EndOfInput {
		if p.ctx.Err() != nil {
			break
		}
		switch p.toks.Trimmed[at] {
		case "}":
			if depth == 0 {
				block.Range = p.span(open, at)
				return Outcome{Node: block, Resume: p.resumeAfter(at)}
			}
			depth--
		case "{":
			depth++
		}
		out := p.parseOne(at, true)
		block.AddChild(out.Node)
		at = p.progress(at, out.Resume)
	}

	p.errorAtEnd("expected '}' to close block")
	block.Range = p.span(open, p.lastValue)
	return Outcome{Node: block, Resume: EndOfInput}
}

// parseNew parses `new fileType(name) { json }`. The body is captured as
// raw text by brace counting and queued for validation.
func (p *Parser) parseNew(index int) Outcome {
	node := &Node{Kind: KindNew, Offset: p.mapper.OffsetOfIndex(index)}

	q := p.query(index)
	head, ok := q.ExpectList(KindGenericLiteral, KindLeftParen)
	if len(head) > 0 {
		node.Value = head[0].Value
	}
	expected := []NodeKind{KindGenericLiteral, KindLeftParen}[len(head):]
	if ok {
		var name *Node
		name, ok = q.ExpectAny(KindGenericLiteral, KindString)
		node.AddChild(name)
		expected = []NodeKind{KindGenericLiteral, KindString}
		if ok {
			var tail []*Node
			tail, ok = q.ExpectList(KindRightParen, KindLeftBrace)
			expected = []NodeKind{KindRightParen, KindLeftBrace}[len(tail):]
		}
	}
	if !ok {
		p.mismatch(q, expected...)
		node.Range = p.span(index, q.reached)
		return Outcome{Node: node, Resume: q.failed}
	}

	fileType := head[0]
	known := p.fileTypes == nil || p.fileTypes.Contains(fileType.Value)
	if !known {
		p.errs = append(p.errs, Diagnostic{
			Range:    p.mapper.RangeOf(p.resumeAfter(index), true),
			Severity: SeverityError,
			Message:  fmt.Sprintf("Unexpected file type %q", fileType.Value),
		})
	}

	open := q.Index()
	depth := 0
	closeAt := EndOfInput
	var compact strings.Builder
	for i := open; i < p.toks.Len(); i++ {
		v := p.toks.Trimmed[i]
		compact.WriteString(v)
		switch v {
		case "{":
			depth++
		case "}":
			depth--
		}
		if depth == 0 {
			closeAt = i
			break
		}
	}

	if closeAt == EndOfInput {
		p.errorAtEnd("expected '}' to close %s body", fileType.Value)
		node.Range = p.span(index, p.lastValue)
		return Outcome{Node: node, Resume: EndOfInput}
	}

	body := &Node{
		Kind:   KindBlock,
		Value:  strings.Join(p.toks.Raw[open:closeAt+1], ""),
		Range:  p.span(open, closeAt),
		Offset: p.mapper.OffsetOfIndex(open),
	}
	node.AddChild(body)
	node.Range = p.span(index, closeAt)

	bodyRange := Range{
		Start: p.mapper.StartPositionOf(open),
		End:   p.mapper.EndPositionOf(closeAt, true),
	}
	// The body of an unknown file type has nothing to be checked against.
	switch {
	case !known:
	case compact.Len() < 3:
		p.errs = append(p.errs, Diagnostic{
			Range:    bodyRange,
			Severity: SeverityError,
			Message:  "JSON must not be empty",
		})
	default:
		p.jobs = append(p.jobs, jsonJob{fileType: fileType.Value, body: body.Value, rng: bodyRange})
	}

	return Outcome{Node: node, Resume: p.resumeAfter(closeAt)}
}

// syncTo skips forward from index to the terminator. It stops early, before
// the next construct keyword or closing brace, and returns the last index it
// consumed.
func (p *Parser) syncTo(index int, terminator string) int {
	last := index
	for {
		next, ok := p.nextIndex(last)
		if !ok {
			return last
		}
		v := p.toks.Trimmed[next]
		if v == terminator {
			return next
		}
		if v == "}" || constructKeywords[v] {
			return last
		}
		last = next
	}
}

// progress guarantees the cursor moves forward.
func (p *Parser) progress(at, resume int) int {
	if resume != EndOfInput && resume <= at {
		return p.resumeAfter(at)
	}
	return resume
}

func (p *Parser) span(first, last int) *Range {
	if last < first {
		last = first
	}
	return &Range{
		Start: p.mapper.StartPositionOf(first),
		End:   p.mapper.EndPositionOf(last, false),
	}
}

func (p *Parser) mismatch(q *query, expected ...NodeKind) {
	want := make([]string, len(expected))
	for i, kind := range expected {
		want[i] = describe(kind)
	}
	list := strings.Join(want, " ")
	if q.failed == EndOfInput {
		p.errorAtEnd("expected %s, got end of input", list)
		return
	}
	p.errorAt(q.failed, "expected %s, got %q", list, p.toks.Trimmed[q.failed])
}

func (p *Parser) errorAt(index int, format string, args ...any) {
	p.errs = append(p.errs, Diagnostic{
		Range:    p.mapper.RangeOf(index, true),
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *Parser) errorAtEnd(format string, args ...any) {
	end := p.mapper.EndOfDocument()
	p.errs = append(p.errs, Diagnostic{
		Range:    Range{Start: end, End: end},
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}
