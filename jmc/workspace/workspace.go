package workspace

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/jmc/jmc/parser"
)

const Ext = ".jmc"

// Workspace indexes every JMC document under a root directory. Documents
// opened in the editor take precedence over their copy on disk.
type Workspace struct {
	mu      sync.RWMutex
	rootDir string
	fs      afero.Fs
	docs    map[string]*Document

	parserOpts []parser.Option
	builtins   Builtins
	log        commonlog.Logger
}

type Document struct {
	Path string
	Tree *parser.Tree

	mu      sync.Mutex
	version int32
	open    bool
}

// Version is the editor version of the last text applied to the document.
func (d *Document) Version() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// IsOpen reports whether the editor currently owns the document's text.
func (d *Document) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

type Builtins struct {
	Classes   []string
	Functions []string
}

type Option func(*Workspace)

func WithFs(fs afero.Fs) Option {
	return func(w *Workspace) {
		w.fs = fs
	}
}

// WithParserOptions sets the options every document tree is created with.
func WithParserOptions(opts ...parser.Option) Option {
	return func(w *Workspace) {
		w.parserOpts = append(w.parserOpts, opts...)
	}
}

func WithBuiltins(b Builtins) Option {
	return func(w *Workspace) {
		w.builtins = b
	}
}

func New(rootDir string, opts ...Option) *Workspace {
	w := &Workspace{
		rootDir: rootDir,
		fs:      afero.NewOsFs(),
		docs:    make(map[string]*Document),
		log:     commonlog.GetLogger("jmc.workspace"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) RootDir() string {
	return w.rootDir
}

// ScanAll parses every .jmc file below the root directory. Hidden
// directories are skipped and unreadable files are logged, not returned.
func (w *Workspace) ScanAll(ctx context.Context) error {
	return afero.Walk(w.fs, w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			if path != w.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == Ext {
			if err := w.ScanFile(ctx, path); err != nil {
				w.log.Warningf("scan %s: %s", path, err)
			}
		}
		return nil
	})
}

// ScanFile reparses path from disk unless the editor has it open.
func (w *Workspace) ScanFile(ctx context.Context, path string) error {
	if doc := w.Document(path); doc != nil && doc.IsOpen() {
		return nil
	}
	content, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return err
	}
	doc := w.document(path)
	_, err = doc.Tree.InitializeIf(ctx, string(content), func() bool {
		return !doc.IsOpen()
	})
	return err
}

// UpdateFile replaces the text of path and parses it.
func (w *Workspace) UpdateFile(ctx context.Context, path, text string) (*Document, error) {
	doc := w.document(path)
	if err := doc.Tree.Initialize(ctx, text); err != nil {
		return doc, err
	}
	return doc, nil
}

// Open hands the document to the editor and parses its text.
func (w *Workspace) Open(ctx context.Context, path string, version int32, text string) (*Document, error) {
	w.mu.Lock()
	doc := w.documentLocked(path)
	doc.mu.Lock()
	doc.open = true
	doc.version = version
	doc.mu.Unlock()
	w.mu.Unlock()

	w.log.Debugf("open %s (version %d)", path, version)
	return doc, doc.Tree.Initialize(ctx, text)
}

// Change applies editor changes in order. A change without a range replaces
// the whole text.
func (w *Workspace) Change(ctx context.Context, path string, version int32, changes []parser.TextChange) (*Document, error) {
	doc := w.document(path)
	doc.mu.Lock()
	doc.version = version
	doc.mu.Unlock()

	for _, change := range changes {
		if err := doc.Tree.ReparseIncremental(ctx, change); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// Close returns the document to the disk copy. Documents that only existed
// in the editor are dropped.
func (w *Workspace) Close(ctx context.Context, path string) error {
	doc := w.Document(path)
	if doc == nil {
		return nil
	}
	doc.mu.Lock()
	doc.open = false
	doc.mu.Unlock()

	if _, err := w.fs.Stat(path); err != nil {
		w.forget(path)
		return nil
	}
	return w.ScanFile(ctx, path)
}

func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, path)
}

// forget drops path unless the editor has it open. It reports whether the
// document is gone.
func (w *Workspace) forget(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if doc, ok := w.docs[path]; ok && doc.IsOpen() {
		return false
	}
	delete(w.docs, path)
	return true
}

func (w *Workspace) Document(path string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[path]
}

// Documents returns every indexed document ordered by path.
func (w *Workspace) Documents() []*Document {
	w.mu.RLock()
	docs := make([]*Document, 0, len(w.docs))
	for _, doc := range w.docs {
		docs = append(docs, doc)
	}
	w.mu.RUnlock()

	slices.SortFunc(docs, func(a, b *Document) int {
		return strings.Compare(a.Path, b.Path)
	})
	return docs
}

func (w *Workspace) document(path string) *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.documentLocked(path)
}

func (w *Workspace) documentLocked(path string) *Document {
	doc, ok := w.docs[path]
	if !ok {
		doc = &Document{Path: path, Tree: parser.NewTree(w.parserOpts...)}
		w.docs[path] = doc
	}
	return doc
}
