package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/jmc/jmc/parser"
)

type Encoder interface {
	Encode(tree *parser.Tree) error
}

// Names lists the formats accepted by NewEncoder.
var Names = []string{"tree", "json", "yaml"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "tree", "":
		return NewTreeEncoder(w), nil
	case "json":
		return NewASTJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}

// TreeEncoder writes the box-drawn node forest followed by one line per
// diagnostic.
type TreeEncoder struct {
	w io.Writer
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(tree *parser.Tree) error {
	tree.PrintPretty(e.w)
	for _, d := range tree.Diagnostics() {
		if _, err := fmt.Fprintf(e.w, "%s %s: %s\n", d.Range, d.Severity, d.Message); err != nil {
			return err
		}
	}
	return nil
}
