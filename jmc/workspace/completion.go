package workspace

import "strings"

type CompletionKind int

const (
	CompletionKindFunction CompletionKind = iota
	CompletionKindClass
	CompletionKindVariable
)

type CompletionItem struct {
	Label  string
	Kind   CompletionKind
	Detail string
}

// Complete returns the completion candidates for trigger. After "$" these
// are the workspace's variables without their sigil; otherwise they are its
// functions and classes followed by the builtins.
func (w *Workspace) Complete(trigger string) []CompletionItem {
	var items []CompletionItem

	if trigger == "$" {
		for _, name := range w.VariableNames() {
			items = append(items, CompletionItem{
				Label: strings.TrimPrefix(name, "$"),
				Kind:  CompletionKindVariable,
			})
		}
		return items
	}

	for _, name := range w.FunctionNames() {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindFunction})
	}
	for _, name := range w.ClassNames() {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindClass})
	}
	for _, name := range w.builtins.Classes {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindClass, Detail: "builtin"})
	}
	for _, name := range w.builtins.Functions {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindFunction, Detail: "builtin"})
	}
	return items
}
