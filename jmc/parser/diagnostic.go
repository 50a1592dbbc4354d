package parser

import (
	"context"
	"errors"
)

// Severity follows the LSP numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

type Diagnostic struct {
	Range    Range
	Severity Severity
	Message  string
}

// ErrSuperseded is returned by a parse that was cancelled, usually because a
// newer text arrived for the same tree.
var ErrSuperseded = errors.New("parse superseded")

// FileTypes is the registry of file-type names accepted by new blocks.
type FileTypes interface {
	Contains(name string) bool
}

// Problem is one finding reported by a Validator.
type Problem struct {
	Severity Severity
	Message  string
}

// Validator checks the JSON body of a new block against its file type.
// Implementations must honour ctx and return promptly when it is done.
type Validator interface {
	Validate(ctx context.Context, fileType, body string) []Problem
}

// jsonJob is a new-block body waiting for validation after the parse.
type jsonJob struct {
	fileType string
	body     string
	rng      Range
}
