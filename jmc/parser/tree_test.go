package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorFunc func(ctx context.Context, fileType, body string) []Problem

func (f validatorFunc) Validate(ctx context.Context, fileType, body string) []Problem {
	return f(ctx, fileType, body)
}

func TestTreeReinitializeReplacesState(t *testing.T) {
	tree := NewTree()
	ctx := context.Background()

	require.NoError(t, tree.Initialize(ctx, "class Foo {"))
	require.Len(t, tree.Diagnostics(), 1)

	require.NoError(t, tree.Initialize(ctx, "class Foo {}"))
	assert.Empty(t, tree.Diagnostics())
	assert.Equal(t, "class Foo {}", tree.Text())
	assert.Len(t, tree.Nodes(), 1)
}

func TestTreeEmptyDocument(t *testing.T) {
	tree := parse(t, "")

	assert.Empty(t, tree.Nodes())
	assert.Empty(t, tree.Flatten())
	assert.Empty(t, tree.Diagnostics())
	assert.Equal(t, 0, tree.Tokens().Len())
}

func TestTreeFlattenPreOrder(t *testing.T) {
	tree := parse(t, "import \"x\";\nclass Foo { function bar() {} }")

	var kinds []NodeKind
	for _, n := range tree.Flatten() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []NodeKind{KindImport, KindString, KindClass, KindFunction, KindBlock}, kinds)
}

func TestTreeNodeAt(t *testing.T) {
	tree := parse(t, "import \"x\";\nclass Foo {}")

	n, ok := tree.NodeAt(Position{Line: 1, Character: 7})
	require.True(t, ok)
	assert.Equal(t, KindClass, n.Kind)

	n, ok = tree.NodeAt(Position{Line: 0, Character: 8})
	require.True(t, ok)
	assert.Equal(t, KindImport, n.Kind)

	_, ok = tree.NodeAt(Position{Line: 5, Character: 0})
	assert.False(t, ok)
}

func TestTreeReparseIncrementalMatchesFull(t *testing.T) {
	ctx := context.Background()
	edits := []struct {
		name   string
		before string
		change TextChange
		after  string
	}{
		{
			name:   "rename",
			before: "class Foo {}",
			change: TextChange{Range: &Range{Start: Position{0, 6}, End: Position{0, 9}}, Text: "Bar"},
			after:  "class Bar {}",
		},
		{
			name:   "insert line",
			before: "class Foo {\n}",
			change: TextChange{Range: &Range{Start: Position{0, 11}, End: Position{0, 11}}, Text: "\n  function f() {}"},
			after:  "class Foo {\n  function f() {}\n}",
		},
		{
			name:   "break structure",
			before: "function f() {}",
			change: TextChange{Range: &Range{Start: Position{0, 14}, End: Position{0, 15}}, Text: ""},
			after:  "function f() {",
		},
		{
			name:   "whole document",
			before: "class A {}",
			change: TextChange{Text: "import \"b\";"},
			after:  "import \"b\";",
		},
		{
			name:   "range past end",
			before: "a",
			change: TextChange{Range: &Range{Start: Position{0, 1}, End: Position{9, 9}}, Text: " b"},
			after:  "a b",
		},
		{
			name:   "utf-16 columns",
			before: "$s = \"😀\" + x;",
			change: TextChange{Range: &Range{Start: Position{0, 12}, End: Position{0, 13}}, Text: "y", UTF16: true},
			after:  "$s = \"😀\" + y;",
		},
	}

	for _, tt := range edits {
		t.Run(tt.name, func(t *testing.T) {
			incremental := parse(t, tt.before)
			require.NoError(t, incremental.ReparseIncremental(ctx, tt.change))

			full := parse(t, tt.after)

			assert.Equal(t, tt.after, incremental.Text())
			assert.Equal(t, full.Nodes(), incremental.Nodes())
			assert.Equal(t, full.Diagnostics(), incremental.Diagnostics())
		})
	}
}

func TestTreeCancelledParseDoesNotCommit(t *testing.T) {
	tree := parse(t, "class Foo {}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tree.Initialize(ctx, "class Bar {")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSuperseded))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "class Foo {}", tree.Text())
	assert.Empty(t, tree.Diagnostics())
}

func TestTreeNewerParseSupersedesOlder(t *testing.T) {
	entered := make(chan struct{})
	slow := validatorFunc(func(ctx context.Context, fileType, body string) []Problem {
		if fileType != "slow" {
			return nil
		}
		close(entered)
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
		return []Problem{{Severity: SeverityError, Message: "stale"}}
	})
	tree := NewTree(WithValidator(slow))

	first := make(chan error, 1)
	go func() {
		first <- tree.Initialize(context.Background(), `new slow(a) {"x": 1}`)
	}()
	<-entered

	require.NoError(t, tree.Initialize(context.Background(), "class Fresh {}"))

	err := <-first
	assert.True(t, errors.Is(err, ErrSuperseded))
	assert.Equal(t, "class Fresh {}", tree.Text())
	assert.Empty(t, tree.Diagnostics())
}

func TestTreeEditDuringParseKeepsPendingText(t *testing.T) {
	entered := make(chan struct{})
	var calls atomic.Int32
	slow := validatorFunc(func(ctx context.Context, fileType, body string) []Problem {
		if calls.Add(1) > 1 {
			return nil
		}
		close(entered)
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
		return nil
	})
	tree := parse(t, "AB", WithValidator(slow))

	first := make(chan error, 1)
	go func() {
		first <- tree.ReparseIncremental(context.Background(), TextChange{
			Range: &Range{},
			Text:  "new slow(a) {\"x\": 1}\n",
		})
	}()
	<-entered

	at := Position{Line: 1, Character: 2}
	require.NoError(t, tree.ReparseIncremental(context.Background(), TextChange{
		Range: &Range{Start: at, End: at},
		Text:  "C",
	}))

	assert.True(t, errors.Is(<-first, ErrSuperseded))
	assert.Equal(t, "new slow(a) {\"x\": 1}\nABC", tree.Text())
}

func TestTreeInitializeIfSkipsWhenRefused(t *testing.T) {
	tree := parse(t, "class Foo {}")

	ok, err := tree.InitializeIf(context.Background(), "class Bar {}", func() bool { return false })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "class Foo {}", tree.Text())

	ok, err = tree.InitializeIf(context.Background(), "class Bar {}", func() bool { return true })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "class Bar {}", tree.Text())
}

func TestTreeValidatorProblemsKeepJobOrder(t *testing.T) {
	v := validatorFunc(func(ctx context.Context, fileType, body string) []Problem {
		// Later jobs finish first.
		if strings.Contains(body, `"n": 1`) {
			time.Sleep(20 * time.Millisecond)
		}
		return []Problem{{Severity: SeverityWarning, Message: fileType + " " + body}}
	})
	text := "new recipes(a) {\"n\": 1}\nnew loot_tables(b) {\"n\": 2}\nclass X {"
	tree := parse(t, text, WithValidator(v))

	diags := tree.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, "expected '}' to close class X", diags[0].Message)
	assert.Equal(t, `recipes {"n": 1}`, diags[1].Message)
	assert.Equal(t, SeverityWarning, diags[1].Severity)
	assert.Equal(t, Range{Start: Position{0, 15}, End: Position{0, 23}}, diags[1].Range)
	assert.Equal(t, `loot_tables {"n": 2}`, diags[2].Message)
}

func TestTreePrintPretty(t *testing.T) {
	tree := parse(t, "class Foo { function bar() {} }")

	var buf bytes.Buffer
	tree.PrintPretty(&buf)

	assert.Equal(t, ""+
		"└── Class Foo [0:0-0:30]\n"+
		"    └── Function bar [0:12-0:28]\n"+
		"        └── Block  [0:27-0:28]\n",
		buf.String())
}
