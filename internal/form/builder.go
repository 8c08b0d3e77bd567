// Package form populates template rows from normalized facts.
package form

import (
	"errors"
	"fmt"

	"github.com/ppiankov/ownfunds/internal/model"
)

// ErrTablesNotLoaded is returned when the schema or rules are missing
var ErrTablesNotLoaded = errors.New("schema and rule tables must be loaded before building forms")

// Schema is the read-only view of the schema store
type Schema interface {
	Loaded() bool
	Rows() []model.FormRow
}

// Resolver is the read-only view of the rule table
type Resolver interface {
	Loaded() bool
	Resolve(concept string) (model.Rule, bool)
}

// Builder joins facts with rules and schema.
// It holds no per-request state and is safe for concurrent use.
type Builder struct {
	schema Schema
	rules  Resolver
}

// NewBuilder creates a builder over loaded tables
func NewBuilder(schema Schema, rules Resolver) *Builder {
	return &Builder{schema: schema, rules: rules}
}

// Build populates the form.
//
// Each fact is resolved through the rule table and appended to its row
// with the rule's sign applied. TOTAL rows are the plain sum of all
// signed contributions to non-TOTAL rows: deductions are already
// negative, so the total never special-cases a row.
func (b *Builder) Build(facts []model.NormalizedFact) (model.Form, error) {
	if b.schema == nil || b.rules == nil || !b.schema.Loaded() || !b.rules.Loaded() {
		return model.Form{}, ErrTablesNotLoaded
	}

	rows := b.schema.Rows()
	roles := make(map[string]model.Role, len(rows))
	for _, row := range rows {
		roles[row.ID] = row.Role
	}

	byRow := make(map[string]*model.RowValue)
	var contributions []model.Contribution // Contribution order, for totals
	var issues []model.ValidationIssue
	var runningTotal int64

	for _, fact := range facts {
		rule, ok := b.rules.Resolve(fact.Concept)
		if !ok {
			issues = append(issues, model.ValidationIssue{
				Kind:    model.IssueUnmatchedFact,
				Concept: fact.Concept,
				Detail:  fmt.Sprintf("no rule matches concept %q%s", fact.Concept, quoteSource(fact.SourceText)),
			})
			continue
		}
		if role, ok := roles[rule.RowID]; !ok || role == model.RoleTotal {
			issues = append(issues, model.ValidationIssue{
				Kind:    model.IssueUnmatchedFact,
				RowID:   rule.RowID,
				Concept: fact.Concept,
				Detail:  fmt.Sprintf("rule for %q targets row %s, which cannot take input", fact.Concept, rule.RowID),
			})
			continue
		}

		c := model.Contribution{
			Fact:         fact,
			Rule:         rule,
			SignedAmount: int64(rule.Sign) * fact.AmountMinorUnits,
		}

		rv, exists := byRow[rule.RowID]
		if !exists {
			rv = &model.RowValue{RowID: rule.RowID}
		}

		// A fact that would overflow its row or the total is dropped
		rowSum, rowOK := addChecked(rv.AmountMinorUnits, c.SignedAmount)
		newTotal, totalOK := addChecked(runningTotal, c.SignedAmount)
		if !rowOK || !totalOK {
			issues = append(issues, model.ValidationIssue{
				Kind:    model.IssueUnmatchedFact,
				RowID:   rule.RowID,
				Concept: fact.Concept,
				Detail:  fmt.Sprintf("amount for %q overflows the row %s or total; fact dropped%s", fact.Concept, rule.RowID, quoteSource(fact.SourceText)),
			})
			continue
		}

		if !exists {
			byRow[rule.RowID] = rv
		}
		rv.Contributions = append(rv.Contributions, c)
		rv.AmountMinorUnits = rowSum
		runningTotal = newTotal

		contributions = append(contributions, c)
	}

	form := model.Form{Issues: issues}
	for _, row := range rows {
		if row.Role == model.RoleTotal {
			form.Rows = append(form.Rows, total(row.ID, contributions, runningTotal))
			continue
		}
		if rv, ok := byRow[row.ID]; ok {
			form.Rows = append(form.Rows, *rv)
		}
	}

	return form, nil
}

// total carries every contribution; only non-TOTAL rows ever receive one.
// sum was accumulated with overflow checks while the contributions were added.
func total(rowID string, contributions []model.Contribution, sum int64) model.RowValue {
	rv := model.RowValue{
		RowID:            rowID,
		AmountMinorUnits: sum,
		Contributions:    make([]model.Contribution, len(contributions)),
	}
	copy(rv.Contributions, contributions)
	return rv
}

// addChecked returns a+b and false if the sum does not fit in an int64
func addChecked(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func quoteSource(source string) string {
	if source == "" {
		return ""
	}
	return fmt.Sprintf(" (from %q)", source)
}
