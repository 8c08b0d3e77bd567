// Package explain renders the calculation trail behind a computed form.
package explain

import (
	"fmt"
	"strings"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/normalize"
)

// RowLookup resolves row metadata for rule lines
type RowLookup interface {
	Rows() []model.FormRow
}

// Explainer builds trails and rule lines. It is stateless.
type Explainer struct{}

// NewExplainer creates a new explainer
func NewExplainer() *Explainer {
	return &Explainer{}
}

// Explain builds the explanation for form.
//
// Every TOTAL row gets a signed-sum expression over its contributions,
// in the order they were added. Trail is the first of these; when the
// schema has no TOTAL row it is "0=0".
func (e *Explainer) Explain(form model.Form, schema RowLookup) model.Explanation {
	rows := schema.Rows()
	byID := make(map[string]model.FormRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var trails []model.TotalTrail
	var firstTotal *model.RowValue
	for _, row := range rows {
		if row.Role != model.RoleTotal {
			continue
		}
		rv, ok := form.Get(row.ID)
		if !ok {
			rv = model.RowValue{RowID: row.ID}
		}
		if firstTotal == nil {
			firstTotal = &rv
		}
		trails = append(trails, e.trail(rv))
	}

	expl := model.Explanation{
		Trail:        "0=0",
		Trails:       trails,
		RulesApplied: make([]string, 0),
	}
	if len(trails) > 0 {
		expl.Trail = trails[0].Expression
	}

	for _, c := range contributionsOf(form, firstTotal, byID) {
		expl.RulesApplied = append(expl.RulesApplied, ruleLine(c, byID[c.Rule.RowID]))
	}

	return expl
}

// trail renders one TOTAL row, e.g. "50+20+80-40=110"
func (e *Explainer) trail(rv model.RowValue) model.TotalTrail {
	denom := Denomination(rv.Contributions)

	var b strings.Builder
	for i, c := range rv.Contributions {
		term := normalize.ToMajor(abs(c.SignedAmount), denom).String()
		switch {
		case c.SignedAmount < 0:
			b.WriteString("-")
		case i > 0:
			b.WriteString("+")
		}
		b.WriteString(term)
	}
	if len(rv.Contributions) == 0 {
		b.WriteString("0")
	}
	b.WriteString("=")
	b.WriteString(normalize.ToMajor(rv.AmountMinorUnits, denom).String())

	return model.TotalTrail{
		RowID:        rv.RowID,
		Expression:   b.String(),
		Denomination: denom,
	}
}

// Denomination picks the scale a trail is written in: the single stated
// unit, or the smallest one when contributions mix units.
func Denomination(contributions []model.Contribution) model.Unit {
	best := model.UnitNone
	bestExp := int32(-1)
	for _, c := range contributions {
		exp, ok := c.Fact.Unit.Exponent()
		if !ok {
			continue
		}
		if bestExp < 0 || exp < bestExp {
			best, bestExp = c.Fact.Unit, exp
		}
	}
	return best
}

// contributionsOf lists contributing facts in the order they were added.
// Without a TOTAL row, fall back to row order.
func contributionsOf(form model.Form, total *model.RowValue, byID map[string]model.FormRow) []model.Contribution {
	if total != nil {
		return total.Contributions
	}
	var out []model.Contribution
	for _, rv := range form.Rows {
		if byID[rv.RowID].Role == model.RoleTotal {
			continue
		}
		out = append(out, rv.Contributions...)
	}
	return out
}

// ruleLine reads "<concept> -> <row> <row description> (<sign>): <rule description> [<reference>]"
func ruleLine(c model.Contribution, row model.FormRow) string {
	target := c.Rule.RowID
	if row.Description != "" {
		target += " " + row.Description
	}
	line := fmt.Sprintf("%s -> %s (%s)", c.Fact.Concept, target, c.Rule.Sign)
	if desc := c.Rule.Description; desc != "" {
		line += ": " + desc
	}
	if ref := c.Rule.Reference; ref != "" {
		line += " [" + ref + "]"
	}
	return line
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
