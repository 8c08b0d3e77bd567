package model

import "strings"

// Role classifies how a form row participates in the calculation
type Role string

const (
	RoleInput     Role = "INPUT"     // Required component, fed by facts
	RoleDeduction Role = "DEDUCTION" // Optional component, fed by facts with a negative rule
	RoleTotal     Role = "TOTAL"     // Computed aggregate, never fed directly
)

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleInput:
		return RoleInput, true
	case RoleDeduction:
		return RoleDeduction, true
	case RoleTotal:
		return RoleTotal, true
	}
	return "", false
}

// FormRow is one line item of the regulatory template
type FormRow struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Role        Role   `json:"role" yaml:"role"`
	Reference   string `json:"reference,omitempty" yaml:"reference,omitempty"` // e.g. "CRR Article 26(1)(a)"
}

// Sign is the direction a concept contributes to its row
type Sign int

const (
	SignPositive Sign = 1
	SignNegative Sign = -1
)

func (s Sign) String() string {
	if s == SignNegative {
		return "-"
	}
	return "+"
}

// Rule maps a concept onto a form row with a sign
type Rule struct {
	Concept     string `json:"concept"`
	RowID       string `json:"row_id"`
	Sign        Sign   `json:"sign"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
}

// Contribution records one fact feeding one row (provenance)
type Contribution struct {
	Fact         NormalizedFact `json:"fact"`
	Rule         Rule           `json:"rule"`
	SignedAmount int64          `json:"signed_amount"` // Rule.Sign × Fact.AmountMinorUnits
}

// RowValue is the populated value of a row for one request
type RowValue struct {
	RowID            string         `json:"row_id"`
	AmountMinorUnits int64          `json:"amount_minor_units"`
	Contributions    []Contribution `json:"contributions"`
}

// Facts returns the contributing facts in contribution order
func (v RowValue) Facts() []NormalizedFact {
	facts := make([]NormalizedFact, 0, len(v.Contributions))
	for _, c := range v.Contributions {
		facts = append(facts, c.Fact)
	}
	return facts
}

// Form is the populated template: rows in schema order plus issues
// found while resolving facts.
type Form struct {
	Rows   []RowValue        `json:"rows"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// Get returns the value for a row id
func (f Form) Get(rowID string) (RowValue, bool) {
	for _, r := range f.Rows {
		if r.RowID == rowID {
			return r, true
		}
	}
	return RowValue{}, false
}

// IssueKind classifies a validation issue
type IssueKind string

const (
	IssueMissingRequiredRow IssueKind = "MISSING_REQUIRED_ROW"
	IssueUnmatchedFact      IssueKind = "UNMATCHED_FACT"
	IssueCheckFailed        IssueKind = "CHECK_FAILED" // Consistency check over computed rows
)

// ValidationIssue is an advisory finding attached to a report.
// Issues never block the form from being produced.
type ValidationIssue struct {
	Kind    IssueKind `json:"kind"`
	RowID   string    `json:"row_id,omitempty"`
	Concept string    `json:"concept,omitempty"`
	Detail  string    `json:"detail"`
}
