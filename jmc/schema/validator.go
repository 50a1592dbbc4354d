package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jmc/jmc/parser"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator checks new-block bodies. A lenient validator accepts every body;
// a strict one requires well-formed JSON and, when a resolver is set, checks
// it against the file type's schema.
type Validator struct {
	resolver *Resolver
	strict   bool
}

var _ parser.Validator = (*Validator)(nil)

func NewValidator(resolver *Resolver, strict bool) *Validator {
	return &Validator{resolver: resolver, strict: strict}
}

func (v *Validator) Validate(ctx context.Context, fileType, body string) []parser.Problem {
	if v == nil || !v.strict {
		return nil
	}

	doc, err := decode(body)
	if err != nil {
		return []parser.Problem{{
			Severity: parser.SeverityError,
			Message:  fmt.Sprintf("invalid JSON: %s", err),
		}}
	}
	if v.resolver == nil {
		return nil
	}

	compiled, err := v.resolver.Resolve(ctx, fileType)
	if err != nil {
		return []parser.Problem{{
			Severity: parser.SeverityInformation,
			Message:  fmt.Sprintf("schema unavailable for %s", fileType),
		}}
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []parser.Problem{{Severity: parser.SeverityError, Message: err.Error()}}
	}

	var problems []parser.Problem
	for _, unit := range verr.BasicOutput().Errors {
		// Units without a message only group their causes.
		if unit.Error == "" || strings.HasPrefix(unit.Error, "doesn't validate with") {
			continue
		}
		location := unit.InstanceLocation
		if location == "" {
			location = "/"
		}
		problems = append(problems, parser.Problem{
			Severity: parser.SeverityError,
			Message:  fmt.Sprintf("%s: %s", location, unit.Error),
		})
	}
	if len(problems) == 0 {
		problems = append(problems, parser.Problem{Severity: parser.SeverityError, Message: verr.Error()})
	}
	return problems
}

func decode(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return doc, nil
}
