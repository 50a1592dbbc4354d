package parser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tliron/commonlog"
)

type Option func(*Tree)

// WithFileTypes sets the registry new blocks are checked against. Without
// one every file type is accepted.
func WithFileTypes(fileTypes FileTypes) Option {
	return func(t *Tree) {
		t.fileTypes = fileTypes
	}
}

func WithValidator(v Validator) Option {
	return func(t *Tree) {
		t.validator = v
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(t *Tree) {
		t.log = log
	}
}

// TextChange is an editor edit. A nil Range replaces the whole document.
type TextChange struct {
	Range *Range
	Text  string

	// UTF16 marks Range characters as UTF-16 code units, the unit LSP
	// clients use. They are converted against the text being edited.
	UTF16 bool
}

// Tree owns the parse of one document: its text, tokens, node forest,
// flattened view and diagnostics. Every parse replaces all of them.
//
// A Tree is safe for concurrent use. Parses are serialized, and starting a
// parse cancels the one still in flight; readers always see the last
// committed state. Edits always apply to the newest text, even when the
// parse of that text has not committed yet.
type Tree struct {
	fileTypes FileTypes
	validator Validator
	log       commonlog.Logger

	parseMu sync.Mutex

	// editMu orders parses: latest and cancel belong to the most recently
	// started one.
	editMu sync.Mutex
	latest string
	cancel context.CancelFunc

	mu     sync.RWMutex
	text   string
	tokens Tokens
	mapper *Mapper
	nodes  []*Node
	flat   []*Node
	diags  []Diagnostic
}

func NewTree(opts ...Option) *Tree {
	t := &Tree{
		log:    commonlog.GetLogger("jmc.parser"),
		mapper: NewMapper("", Tokens{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize lexes and parses text, replacing everything derived from a
// previous parse. It returns an error wrapping ErrSuperseded when ctx is
// cancelled or a newer parse starts before this one commits.
func (t *Tree) Initialize(ctx context.Context, text string) error {
	_, err := t.InitializeIf(ctx, text, nil)
	return err
}

// InitializeIf is Initialize guarded by ok. ok is evaluated atomically with
// the start of the parse, so a parse started after ok returned true always
// supersedes this one. It reports false without parsing when ok returns
// false.
func (t *Tree) InitializeIf(ctx context.Context, text string, ok func() bool) (bool, error) {
	t.editMu.Lock()
	if ok != nil && !ok() {
		t.editMu.Unlock()
		return false, nil
	}
	ctx, cancel := t.begin(ctx, text)
	t.editMu.Unlock()
	defer cancel()

	return true, t.parse(ctx, text)
}

func (t *Tree) parse(ctx context.Context, text string) error {
	t.parseMu.Lock()
	defer t.parseMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSuperseded, err)
	}

	toks := Lex(text)
	mapper := NewMapper(text, toks)
	p := newParser(ctx, toks, mapper, t.fileTypes)
	if err := p.parseNext(0); err != nil {
		t.log.Debugf("parse abandoned after %d nodes: %s", len(p.nodes), err)
		return fmt.Errorf("%w: %w", ErrSuperseded, err)
	}

	diags := append(p.errs, t.validate(ctx, p.jobs)...)

	var flat []*Node
	for _, n := range p.nodes {
		flat = n.appendFlat(flat)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSuperseded, err)
	}
	t.text = text
	t.tokens = toks
	t.mapper = mapper
	t.nodes = p.nodes
	t.flat = flat
	t.diags = diags

	t.log.Debugf("parsed %d tokens into %d nodes, %d diagnostics", toks.Len(), len(p.nodes), len(diags))
	return nil
}

// ReparseFull replaces the document text and parses it again.
func (t *Tree) ReparseFull(ctx context.Context, text string) error {
	return t.Initialize(ctx, text)
}

// ReparseIncremental applies change to the newest text and reparses the
// whole document.
func (t *Tree) ReparseIncremental(ctx context.Context, change TextChange) error {
	t.editMu.Lock()
	text := change.Text
	if change.Range != nil {
		text = applyChange(t.latest, change)
	}
	ctx, cancel := t.begin(ctx, text)
	t.editMu.Unlock()
	defer cancel()

	return t.parse(ctx, text)
}

func applyChange(text string, change TextChange) string {
	runes := []rune(text)
	mapper := NewMapper(text, Tokens{})
	clamp := func(offset int) int {
		return min(max(offset, 0), len(runes))
	}
	from, to := change.Range.Start, change.Range.End
	if change.UTF16 {
		from.Character = RuneColumn(LineOf(text, from.Line), from.Character)
		to.Character = RuneColumn(LineOf(text, to.Line), to.Character)
	}
	start := clamp(mapper.OffsetOfPosition(from))
	end := clamp(mapper.OffsetOfPosition(to))
	if end < start {
		start, end = end, start
	}
	return string(runes[:start]) + change.Text + string(runes[end:])
}

// begin records text as the newest document and cancels the parse still in
// flight. The caller holds editMu.
func (t *Tree) begin(parent context.Context, text string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.latest = text
	return ctx, cancel
}

// validate runs the queued JSON checks concurrently and returns their
// diagnostics in source order.
func (t *Tree) validate(ctx context.Context, jobs []jsonJob) []Diagnostic {
	if t.validator == nil || len(jobs) == 0 {
		return nil
	}

	results := make([][]Problem, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = t.validator.Validate(ctx, job.fileType, job.body)
		}()
	}
	wg.Wait()

	var diags []Diagnostic
	for i, problems := range results {
		for _, problem := range problems {
			diags = append(diags, Diagnostic{
				Range:    jobs[i].rng,
				Severity: problem.Severity,
				Message:  problem.Message,
			})
		}
	}
	return diags
}

func (t *Tree) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

func (t *Tree) Tokens() Tokens {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tokens
}

func (t *Tree) Mapper() *Mapper {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mapper
}

// Nodes returns the top-level nodes in document order.
func (t *Tree) Nodes() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Node(nil), t.nodes...)
}

// Flatten returns the pre-order traversal of the node forest.
func (t *Tree) Flatten() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Node(nil), t.flat...)
}

func (t *Tree) Diagnostics() []Diagnostic {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Diagnostic(nil), t.diags...)
}

// NodeAt returns the first node in the flattened view whose range contains
// pos.
func (t *Tree) NodeAt(pos Position) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, n := range t.flat {
		if n.Range != nil && n.Range.Contains(pos) {
			return n, true
		}
	}
	return nil, false
}

// PrintPretty renders the node forest as an indented tree.
func (t *Tree) PrintPretty(w io.Writer) {
	nodes := t.Nodes()
	for i, n := range nodes {
		n.PrintPretty(w, "", i == len(nodes)-1)
	}
}
