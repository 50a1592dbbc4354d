package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dhamidi/jmc/jmc/parser"
	"github.com/dhamidi/jmc/jmc/workspace"
)

var errCheckFailed = errors.New("check failed")

func newCheckCmd() *cobra.Command {
	var (
		noColor  bool
		warnings bool
	)

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Report diagnostics for .jmc files or directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			docs, err := collectDocuments(cmd, args)
			if err != nil {
				return err
			}

			p := &printer{w: cmd.OutOrStdout(), warningsAsErrors: warnings}
			for _, doc := range docs {
				p.document(doc)
			}
			p.summary()

			if p.errors > 0 {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVarP(&warnings, "strict", "W", false, "treat warnings as errors")

	return cmd
}

func collectDocuments(cmd *cobra.Command, args []string) ([]*workspace.Document, error) {
	var docs []*workspace.Document
	opts := []workspace.Option{workspace.WithParserOptions(parserOptions()...)}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}

		if info.IsDir() {
			ws := workspace.New(arg, opts...)
			if err := ws.ScanAll(cmd.Context()); err != nil {
				return nil, fmt.Errorf("scan %s: %w", arg, err)
			}
			docs = append(docs, ws.Documents()...)
			continue
		}

		ws := workspace.New(filepath.Dir(arg), opts...)
		if err := ws.ScanFile(cmd.Context(), arg); err != nil {
			return nil, fmt.Errorf("check %s: %w", arg, err)
		}
		if doc := ws.Document(arg); doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

type printer struct {
	w                io.Writer
	warningsAsErrors bool

	files    int
	errors   int
	warnings int
}

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	infoStyle    = color.New(color.FgCyan)
	pathStyle    = color.New(color.Bold)
	gutterStyle  = color.New(color.FgBlue)
)

func (p *printer) document(doc *workspace.Document) {
	p.files++
	lines := strings.Split(doc.Tree.Text(), "\n")

	for _, d := range doc.Tree.Diagnostics() {
		switch d.Severity {
		case parser.SeverityError:
			p.errors++
		case parser.SeverityWarning:
			if p.warningsAsErrors {
				p.errors++
			} else {
				p.warnings++
			}
		}

		start := d.Range.Start
		fmt.Fprintf(p.w, "%s: %s: %s\n",
			pathStyle.Sprintf("%s:%d:%d", doc.Path, start.Line+1, start.Character+1),
			severityStyle(d.Severity).Sprint(d.Severity),
			d.Message)

		if start.Line < len(lines) {
			line := []rune(lines[start.Line])
			col := min(start.Character, len(line))
			gutter := fmt.Sprintf("%4d | ", start.Line+1)
			fmt.Fprintf(p.w, "%s%s\n", gutterStyle.Sprint(gutter), string(line))
			fmt.Fprintf(p.w, "%s%s%s\n",
				gutterStyle.Sprint(strings.Repeat(" ", len(gutter)-2)+"| "),
				strings.Repeat(" ", col),
				severityStyle(d.Severity).Sprint("^"))
		}
	}
}

func (p *printer) summary() {
	text := fmt.Sprintf("%d file(s) checked, %d error(s), %d warning(s)", p.files, p.errors, p.warnings)
	if p.errors > 0 {
		errorStyle.Fprintln(p.w, text)
		return
	}
	fmt.Fprintln(p.w, text)
}

func severityStyle(s parser.Severity) *color.Color {
	switch s {
	case parser.SeverityError:
		return errorStyle
	case parser.SeverityWarning:
		return warningStyle
	}
	return infoStyle
}
