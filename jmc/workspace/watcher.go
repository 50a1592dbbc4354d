package workspace

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher keeps the workspace in sync with .jmc files changed on disk by
// other programs. Documents open in the editor are left alone.
type Watcher struct {
	workspace *Workspace
	watcher   *fsnotify.Watcher
	debounce  time.Duration

	// OnUpdate, when set, is called after path was reparsed or removed.
	OnUpdate func(path string)

	mu      sync.Mutex
	pending map[string]bool
}

func NewWatcher(w *Workspace, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		workspace: w,
		watcher:   fw,
		debounce:  debounce,
		pending:   make(map[string]bool),
	}, nil
}

// Run watches the workspace root until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.workspace.RootDir()); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.workspace.log.Warningf("watch: %s", err)
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handle records event and reports whether a flush is due.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := w.workspace.fs.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.workspace.log.Warningf("watch %s: %s", event.Name, err)
			}
			return false
		}
	}
	if filepath.Ext(event.Name) != Ext {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = true
	w.mu.Unlock()
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := w.pending
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for path := range paths {
		if doc := w.workspace.Document(path); doc != nil && doc.IsOpen() {
			continue
		}
		if _, err := w.workspace.fs.Stat(path); err != nil {
			if !w.workspace.forget(path) {
				continue
			}
		} else if err := w.workspace.ScanFile(ctx, path); err != nil {
			w.workspace.log.Warningf("rescan %s: %s", path, err)
			continue
		}
		w.workspace.log.Debugf("reloaded %s", path)
		if w.OnUpdate != nil {
			w.OnUpdate(path)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
