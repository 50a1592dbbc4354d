package format

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/dhamidi/jmc/jmc/parser"
)

// YAMLEncoder writes the same document as ASTJSONEncoder in YAML.
type YAMLEncoder struct {
	w io.Writer
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(tree *parser.Tree) error {
	text, err := e.MarshalText(tree)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *YAMLEncoder) MarshalText(tree *parser.Tree) ([]byte, error) {
	return yaml.MarshalWithOptions(documentOf(tree), yaml.Indent(2), yaml.IndentSequence(true))
}
