package workspace

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/jmc/jmc/parser"
)

const lsName = "jmc"

// TriggerCharacters start a completion request in the editor.
var TriggerCharacters = []string{".", "#", " ", "/", "$"}

// LSPServer serves one workspace over the language server protocol.
type LSPServer struct {
	handler protocol.Handler
	server  *server.Server
	version string
	opts    []Option

	workspace *Workspace

	mu     sync.Mutex
	notify glsp.NotifyFunc
	stop   context.CancelFunc
}

// NewLSPServer returns a server whose workspace is created with opts once the
// client announces its root.
func NewLSPServer(version string, opts ...Option) *LSPServer {
	ls := &LSPServer{
		version: version,
		opts:    opts,
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentCompletion:     ls.textDocumentCompletion,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
		TextDocumentHover:          ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) Workspace() *Workspace {
	return ls.workspace
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	} else if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	}

	ls.workspace = New(rootDir, ls.opts...)
	ls.workspace.log.Infof("initialize %s", rootDir)

	capabilities := ls.handler.CreateServerCapabilities()

	change := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &change,
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: TriggerCharacters,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	ls.mu.Lock()
	ls.notify = ctx.Notify
	runCtx, stop := context.WithCancel(context.Background())
	ls.stop = stop
	ls.mu.Unlock()

	if err := ls.workspace.ScanAll(runCtx); err != nil {
		ls.workspace.log.Warningf("scan workspace: %s", err)
	}

	watcher, err := NewWatcher(ls.workspace, DefaultDebounce)
	if err != nil {
		ls.workspace.log.Warningf("watch workspace: %s", err)
		return nil
	}
	watcher.OnUpdate = func(path string) {
		ls.publish(pathToURI(path), ls.workspace.Document(path))
	}
	go func() {
		if err := watcher.Run(runCtx); err != nil {
			ls.workspace.log.Errorf("watcher stopped: %s", err)
		}
	}()
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.stop != nil {
		ls.stop()
	}
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.remember(ctx)
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	doc, err := ls.workspace.Open(context.Background(), path, params.TextDocument.Version, params.TextDocument.Text)
	if err == nil {
		ls.publish(params.TextDocument.URI, doc)
	}
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	ls.remember(ctx)
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}

	var changes []parser.TextChange
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, parser.TextChange{Range: fromProtocolRange(c.Range), Text: c.Text, UTF16: true})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, parser.TextChange{Text: c.Text})
		}
	}

	doc, err := ls.workspace.Change(context.Background(), path, params.TextDocument.Version, changes)
	if err != nil {
		// A newer change is already being parsed; it will publish.
		ls.workspace.log.Debugf("change %s: %s", path, err)
		return nil
	}
	ls.publish(params.TextDocument.URI, doc)
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if err := ls.workspace.Close(context.Background(), path); err != nil {
		ls.workspace.log.Debugf("close %s: %s", path, err)
	}
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	ls.remember(ctx)
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text == nil {
		return nil
	}
	doc, err := ls.workspace.UpdateFile(context.Background(), path, *params.Text)
	if err == nil {
		ls.publish(params.TextDocument.URI, doc)
	}
	return nil
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	trigger := ""
	if params.Context != nil && params.Context.TriggerKind == protocol.CompletionTriggerKindTriggerCharacter && params.Context.TriggerCharacter != nil {
		trigger = *params.Context.TriggerCharacter
	}

	completions := ls.workspace.Complete(trigger)
	items := make([]protocol.CompletionItem, 0, len(completions))
	for _, c := range completions {
		kind := toProtocolKind(c.Kind)
		item := protocol.CompletionItem{
			Label: c.Label,
			Kind:  &kind,
		}
		if c.Detail != "" {
			detail := c.Detail
			item.Detail = &detail
		}
		items = append(items, item)
	}
	return protocol.CompletionList{Items: items}, nil
}

func (ls *LSPServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	return toDocumentSymbols(ls.columns(path), ls.workspace.Symbols(path)), nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	cols := ls.columns(path)
	text, rng, ok := ls.workspace.Hover(path, cols.fromProtocolPosition(params.Position))
	if !ok {
		return nil, nil
	}
	r := cols.toProtocolRange(rng)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: text,
		},
		Range: &r,
	}, nil
}

func (ls *LSPServer) remember(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ls.mu.Lock()
	ls.notify = ctx.Notify
	ls.mu.Unlock()
}

// publish sends the document's diagnostics. The client replaces any
// previously published set for the URI.
func (ls *LSPServer) publish(uri string, doc *Document) {
	ls.mu.Lock()
	notify := ls.notify
	ls.mu.Unlock()
	if notify == nil {
		return
	}

	diagnostics := []protocol.Diagnostic{}
	var version *protocol.UInteger
	if doc != nil {
		cols := columnsOf(doc.Tree.Text())
		for _, d := range doc.Tree.Diagnostics() {
			severity := protocol.DiagnosticSeverity(d.Severity)
			source := lsName
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    cols.toProtocolRange(d.Range),
				Severity: &severity,
				Source:   &source,
				Message:  d.Message,
			})
		}
		if doc.IsOpen() {
			v := protocol.UInteger(doc.Version())
			version = &v
		}
	}

	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
}

func toDocumentSymbols(cols columns, symbols []Symbol) []protocol.DocumentSymbol {
	result := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, s := range symbols {
		rng := cols.toProtocolRange(s.Range)
		result = append(result, protocol.DocumentSymbol{
			Name:           s.Name,
			Kind:           toSymbolKind(s.Kind),
			Range:          rng,
			SelectionRange: rng,
			Children:       toDocumentSymbols(cols, s.Children),
		})
	}
	return result
}

func toSymbolKind(kind SymbolKind) protocol.SymbolKind {
	switch kind {
	case SymbolClass:
		return protocol.SymbolKindClass
	case SymbolMethod:
		return protocol.SymbolKindMethod
	default:
		return protocol.SymbolKindFunction
	}
}

func toProtocolKind(kind CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case CompletionKindFunction:
		return protocol.CompletionItemKindFunction
	case CompletionKindClass:
		return protocol.CompletionItemKindClass
	case CompletionKindVariable:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindText
	}
}

// columns holds the lines of a document so positions can move between rune
// columns and the UTF-16 columns LSP clients count in.
type columns []string

func columnsOf(text string) columns {
	return strings.Split(text, "\n")
}

func (ls *LSPServer) columns(path string) columns {
	if doc := ls.workspace.Document(path); doc != nil {
		return columnsOf(doc.Tree.Text())
	}
	return nil
}

func (c columns) line(n int) string {
	if n >= 0 && n < len(c) {
		return c[n]
	}
	return ""
}

func (c columns) toProtocolRange(r parser.Range) protocol.Range {
	return protocol.Range{
		Start: c.toProtocolPosition(r.Start),
		End:   c.toProtocolPosition(r.End),
	}
}

func (c columns) toProtocolPosition(p parser.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(max(p.Line, 0)),
		Character: protocol.UInteger(parser.UTF16Column(c.line(p.Line), max(p.Character, 0))),
	}
}

func (c columns) fromProtocolPosition(p protocol.Position) parser.Position {
	line := int(p.Line)
	return parser.Position{Line: line, Character: parser.RuneColumn(c.line(line), int(p.Character))}
}

// fromProtocolRange keeps UTF-16 columns; the tree converts them against the
// text the edit applies to.
func fromProtocolRange(r *protocol.Range) *parser.Range {
	if r == nil {
		return nil
	}
	return &parser.Range{
		Start: parser.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)},
		End:   parser.Position{Line: int(r.End.Line), Character: int(r.End.Character)},
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}
