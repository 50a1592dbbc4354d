package parser

// query is a lookahead cursor over the trimmed tokens. Expectations are
// checked against the tokens following the cursor and the cursor only moves
// when a whole expectation matches.
type query struct {
	p     *Parser
	index int

	// reached is the last token that matched, even when the expectation as
	// a whole failed.
	reached int
	// failed is the token that broke the last expectation, or EndOfInput
	// when the input ran out first.
	failed int
}

func (p *Parser) query(index int) *query {
	return &query{p: p, index: index, reached: index, failed: EndOfInput}
}

// Index is the last token consumed by a successful expectation.
func (q *query) Index() int {
	return q.index
}

// ExpectList checks that the next tokens have exactly the given kinds, in
// order. It returns the nodes that matched and whether the whole list did.
func (q *query) ExpectList(kinds ...NodeKind) ([]*Node, bool) {
	cur := q.index
	matched := make([]*Node, 0, len(kinds))
	for _, want := range kinds {
		node, next, ok := q.step(cur, want)
		if !ok {
			return matched, false
		}
		matched = append(matched, node)
		cur = next
	}
	q.index = cur
	return matched, true
}

// ExpectAny checks that the next token has one of the given kinds.
func (q *query) ExpectAny(kinds ...NodeKind) (*Node, bool) {
	node, next, ok := q.step(q.index, kinds...)
	if !ok {
		return nil, false
	}
	q.index = next
	return node, true
}

func (q *query) step(cur int, kinds ...NodeKind) (*Node, int, bool) {
	next, ok := q.p.nextIndex(cur)
	if !ok {
		q.failed = EndOfInput
		return nil, cur, false
	}
	node := q.p.leaf(next)
	for _, want := range kinds {
		if node.Kind == want {
			q.reached = next
			return node, next, true
		}
	}
	q.failed = next
	return nil, cur, false
}
