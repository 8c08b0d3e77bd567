package model

import "time"

// Report is the complete response for one scenario
type Report struct {
	ID          string    `json:"id"`           // Random request id
	Template    string    `json:"template"`     // e.g. "C 01.00"
	Currency    string    `json:"currency"`     // ISO code from the schema
	GeneratedAt time.Time `json:"generated_at"` // When processing finished
	Scenario    string    `json:"scenario"`     // Input text as submitted

	Rows        []RowValue        `json:"rows"`
	Issues      []ValidationIssue `json:"issues"`
	Explanation Explanation       `json:"explanation"`

	Extraction ExtractionMeta `json:"extraction"`
}

// Valid reports whether the report carries no issues at all
func (r *Report) Valid() bool {
	return len(r.Issues) == 0
}

// ExtractionMeta describes the language-service call behind a report
type ExtractionMeta struct {
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Cached     bool   `json:"cached"`
	Facts      int    `json:"facts"` // Facts returned by the service, including rejected ones
}

// Explanation is the human-readable calculation trail
type Explanation struct {
	Trail        string       `json:"trail"`            // First TOTAL row, e.g. "50+20+80-40=110"
	Trails       []TotalTrail `json:"trails,omitempty"` // One per TOTAL row, schema order
	RulesApplied []string     `json:"rules_applied"`    // One line per contributing fact
}

// TotalTrail is the signed-sum expression behind one TOTAL row
type TotalTrail struct {
	RowID        string `json:"row_id"`
	Expression   string `json:"expression"`
	Denomination Unit   `json:"denomination"` // Scale the terms are expressed in
}
