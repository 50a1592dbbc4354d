package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/jmc/jmc/parser"
)

type ASTJSONEncoder struct {
	w io.Writer
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(tree *parser.Tree) error {
	text, err := e.MarshalText(tree)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *ASTJSONEncoder) MarshalText(tree *parser.Tree) ([]byte, error) {
	return json.MarshalIndent(documentOf(tree), "", "  ")
}

type astDocument struct {
	Nodes       []*astNode      `json:"nodes" yaml:"nodes"`
	Diagnostics []astDiagnostic `json:"diagnostics" yaml:"diagnostics"`
}

type astNode struct {
	Kind     string     `json:"kind" yaml:"kind"`
	Value    string     `json:"value,omitempty" yaml:"value,omitempty"`
	Span     *astSpan   `json:"span,omitempty" yaml:"span,omitempty"`
	Offset   int        `json:"offset" yaml:"offset"`
	Children []*astNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type astSpan struct {
	Start astPosition `json:"start" yaml:"start"`
	End   astPosition `json:"end" yaml:"end"`
}

type astPosition struct {
	Line      int `json:"line" yaml:"line"`
	Character int `json:"character" yaml:"character"`
}

type astDiagnostic struct {
	Span     astSpan `json:"span" yaml:"span"`
	Severity string  `json:"severity" yaml:"severity"`
	Message  string  `json:"message" yaml:"message"`
}

func documentOf(tree *parser.Tree) astDocument {
	doc := astDocument{
		Nodes:       []*astNode{},
		Diagnostics: []astDiagnostic{},
	}
	for _, n := range tree.Nodes() {
		doc.Nodes = append(doc.Nodes, nodeToAST(n))
	}
	for _, d := range tree.Diagnostics() {
		doc.Diagnostics = append(doc.Diagnostics, astDiagnostic{
			Span:     spanOf(d.Range),
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}
	return doc
}

func nodeToAST(n *parser.Node) *astNode {
	an := &astNode{
		Kind:   n.Kind.String(),
		Value:  n.Value,
		Offset: n.Offset,
	}

	if n.Range != nil {
		span := spanOf(*n.Range)
		an.Span = &span
	}

	if len(n.Children) > 0 {
		an.Children = make([]*astNode, len(n.Children))
		for i, child := range n.Children {
			an.Children[i] = nodeToAST(child)
		}
	}

	return an
}

func spanOf(r parser.Range) astSpan {
	return astSpan{
		Start: astPosition{Line: r.Start.Line, Character: r.Start.Character},
		End:   astPosition{Line: r.End.Line, Character: r.End.Character},
	}
}
