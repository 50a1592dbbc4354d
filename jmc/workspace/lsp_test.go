package workspace

import (
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type notifications struct {
	mu   sync.Mutex
	sent []protocol.PublishDiagnosticsParams
}

func (n *notifications) notify(method string, params any) {
	if method != protocol.ServerTextDocumentPublishDiagnostics {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, params.(protocol.PublishDiagnosticsParams))
}

func (n *notifications) last() protocol.PublishDiagnosticsParams {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

func newTestServer(t *testing.T) (*LSPServer, *glsp.Context, *notifications) {
	t.Helper()
	ls := NewLSPServer("test", WithFs(afero.NewMemMapFs()), WithBuiltins(Builtins{Functions: []string{"print"}}))
	root := "file:///proj"
	result, err := ls.initialize(&glsp.Context{}, &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)

	init := result.(protocol.InitializeResult)
	assert.Equal(t, TriggerCharacters, init.Capabilities.CompletionProvider.TriggerCharacters)
	assert.Equal(t, "/proj", ls.Workspace().RootDir())

	n := &notifications{}
	return ls, &glsp.Context{Notify: n.notify}, n
}

func TestLSPPublishesDiagnostics(t *testing.T) {
	ls, ctx, n := newTestServer(t)
	uri := "file:///proj/a.jmc"

	require.NoError(t, ls.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "jmc", Version: 1, Text: "class A {"},
	}))

	published := n.last()
	assert.Equal(t, uri, published.URI)
	require.NotNil(t, published.Version)
	assert.Equal(t, protocol.UInteger(1), *published.Version)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, "expected '}' to close class A", published.Diagnostics[0].Message)
	assert.Equal(t, protocol.DiagnosticSeverityError, *published.Diagnostics[0].Severity)
	assert.Equal(t, protocol.Position{Line: 0, Character: 9}, published.Diagnostics[0].Range.Start)

	require.NoError(t, ls.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 9},
					End:   protocol.Position{Line: 0, Character: 9},
				},
				Text: "}",
			},
		},
	}))

	published = n.last()
	assert.Equal(t, protocol.UInteger(2), *published.Version)
	assert.NotNil(t, published.Diagnostics)
	assert.Empty(t, published.Diagnostics)
	assert.Equal(t, "class A {}", ls.Workspace().Document("/proj/a.jmc").Tree.Text())

	require.NoError(t, ls.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                3,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "import x"}},
	}))
	assert.Len(t, n.last().Diagnostics, 1)
}

func TestLSPUsesUTF16Columns(t *testing.T) {
	ls, ctx, n := newTestServer(t)
	uri := "file:///proj/a.jmc"

	require.NoError(t, ls.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: `$s = "😀"; class A {`},
	}))

	var unclosed *protocol.Diagnostic
	for _, d := range n.last().Diagnostics {
		if d.Message == "expected '}' to close class A" {
			unclosed = &d
		}
	}
	require.NotNil(t, unclosed)
	assert.Equal(t, protocol.Position{Line: 0, Character: 20}, unclosed.Range.Start)

	require.NoError(t, ls.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 20},
					End:   protocol.Position{Line: 0, Character: 20},
				},
				Text: "}",
			},
		},
	}))
	assert.Equal(t, `$s = "😀"; class A {}`, ls.Workspace().Document("/proj/a.jmc").Tree.Text())

	hover, err := ls.textDocumentHover(ctx, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 18},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Equal(t, "Class A", hover.Contents.(protocol.MarkupContent).Value)
	assert.Equal(t, protocol.UInteger(11), hover.Range.Start.Character)
}

func TestLSPCompletion(t *testing.T) {
	ls, ctx, _ := newTestServer(t)
	uri := "file:///proj/a.jmc"
	require.NoError(t, ls.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "function f() { $hp = 20; }"},
	}))

	dollar := "$"
	result, err := ls.textDocumentCompletion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}},
		Context: &protocol.CompletionContext{
			TriggerKind:      protocol.CompletionTriggerKindTriggerCharacter,
			TriggerCharacter: &dollar,
		},
	})
	require.NoError(t, err)
	list := result.(protocol.CompletionList)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "hp", list.Items[0].Label)
	assert.Equal(t, protocol.CompletionItemKindVariable, *list.Items[0].Kind)

	result, err = ls.textDocumentCompletion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}},
	})
	require.NoError(t, err)
	var labels []string
	for _, item := range result.(protocol.CompletionList).Items {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"f", "print"}, labels)
}

func TestLSPSymbolsAndHover(t *testing.T) {
	ls, ctx, _ := newTestServer(t)
	uri := "file:///proj/a.jmc"
	require.NoError(t, ls.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "class A {\n  function go() {}\n}"},
	}))

	result, err := ls.textDocumentDocumentSymbol(ctx, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	symbols := result.([]protocol.DocumentSymbol)
	require.Len(t, symbols, 1)
	assert.Equal(t, "A", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindClass, symbols[0].Kind)
	require.Len(t, symbols[0].Children, 1)
	assert.Equal(t, "go", symbols[0].Children[0].Name)
	assert.Equal(t, protocol.UInteger(1), symbols[0].Children[0].Range.Start.Line)

	hover, err := ls.textDocumentHover(ctx, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 1},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Equal(t, "Class A", hover.Contents.(protocol.MarkupContent).Value)

	hover, err = ls.textDocumentHover(ctx, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 9, Character: 0},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestURIConversion(t *testing.T) {
	path, err := uriToPath("file:///proj/dir%20x/a.jmc")
	require.NoError(t, err)
	assert.Equal(t, "/proj/dir x/a.jmc", path)
	assert.Equal(t, "file:///proj/dir%20x/a.jmc", pathToURI(path))

	path, err = uriToPath("untitled:1")
	require.NoError(t, err)
	assert.Equal(t, "untitled:1", path)
}
