package workspace

import (
	"fmt"
	"slices"

	"github.com/dhamidi/jmc/jmc/parser"
)

type SymbolKind int

const (
	SymbolClass SymbolKind = iota
	SymbolFunction
	SymbolMethod
)

// Symbol is an outline entry of a document.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Range    parser.Range
	Children []Symbol
}

// Symbols returns the outline of path: classes with their methods, then
// top-level functions, in document order.
func (w *Workspace) Symbols(path string) []Symbol {
	doc := w.Document(path)
	if doc == nil {
		return nil
	}

	var symbols []Symbol
	for _, n := range doc.Tree.Nodes() {
		if n.Value == "" || n.Range == nil {
			continue
		}
		switch n.Kind {
		case parser.KindClass:
			class := Symbol{Name: n.Value, Kind: SymbolClass, Range: *n.Range}
			for _, fn := range n.ChildrenOfKind(parser.KindFunction) {
				if fn.Value == "" || fn.Range == nil {
					continue
				}
				class.Children = append(class.Children, Symbol{Name: fn.Value, Kind: SymbolMethod, Range: *fn.Range})
			}
			symbols = append(symbols, class)
		case parser.KindFunction:
			symbols = append(symbols, Symbol{Name: n.Value, Kind: SymbolFunction, Range: *n.Range})
		}
	}
	return symbols
}

// VariableNames returns every distinct $variable used across the workspace,
// sorted.
func (w *Workspace) VariableNames() []string {
	seen := make(map[string]bool)
	for _, doc := range w.Documents() {
		for _, n := range doc.Tree.Flatten() {
			if n.Kind == parser.KindVariable {
				seen[n.Value] = true
			}
		}
	}
	return sortedKeys(seen)
}

// FunctionNames returns every function defined in the workspace. Methods are
// qualified with their class name.
func (w *Workspace) FunctionNames() []string {
	seen := make(map[string]bool)
	for _, doc := range w.Documents() {
		for _, n := range doc.Tree.Nodes() {
			switch n.Kind {
			case parser.KindFunction:
				if n.Value != "" {
					seen[n.Value] = true
				}
			case parser.KindClass:
				for _, fn := range n.ChildrenOfKind(parser.KindFunction) {
					if fn.Value != "" && n.Value != "" {
						seen[n.Value+"."+fn.Value] = true
					}
				}
			}
		}
	}
	return sortedKeys(seen)
}

func (w *Workspace) ClassNames() []string {
	seen := make(map[string]bool)
	for _, doc := range w.Documents() {
		for _, n := range doc.Tree.Nodes() {
			if n.Kind == parser.KindClass && n.Value != "" {
				seen[n.Value] = true
			}
		}
	}
	return sortedKeys(seen)
}

// Hover describes the node at pos as "{kind} {value}".
func (w *Workspace) Hover(path string, pos parser.Position) (string, parser.Range, bool) {
	doc := w.Document(path)
	if doc == nil {
		return "", parser.Range{}, false
	}
	n, ok := doc.Tree.NodeAt(pos)
	if !ok {
		return "", parser.Range{}, false
	}
	return fmt.Sprintf("%s %s", n.Kind, n.Value), *n.Range, true
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
