package rules

import (
	"errors"
	"fmt"
)

// ErrJurisdictionNotFound indicates the requested jurisdiction has no
// resolvable document, not even a country baseline.
var ErrJurisdictionNotFound = errors.New("jurisdiction not found")

// ParseError wraps a malformed rule document. It is a load-time failure: the
// store refuses to serve the affected jurisdiction rather than silently
// omitting its rules.
type ParseError struct {
	Document string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rule document %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
