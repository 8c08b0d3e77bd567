package model

import "fmt"

// SchemaError is returned when the form schema cannot be loaded.
// It is fatal at startup.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// RuleError is returned when the rule table cannot be loaded.
// It is fatal at startup.
type RuleError struct {
	Path string
	Line int // 1-based, 0 when not tied to a line
	Err  error
}

func (e *RuleError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("rules %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("rules %s: %v", e.Path, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// ExtractionError aborts a single request: no partial form is returned
type ExtractionError struct {
	Provider string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("extraction via %s failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AmountError rejects a single fact during normalization.
// Callers convert it into an UNMATCHED_FACT issue.
type AmountError struct {
	Concept string
	Amount  string
	Unit    Unit
	Reason  string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount %q (unit %q) for %q: %s", e.Amount, e.Unit, e.Concept, e.Reason)
}
