package explain

import (
	"testing"

	"github.com/ppiankov/ownfunds/internal/form"
	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/rules"
	"github.com/ppiankov/ownfunds/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tables(t *testing.T) (*schema.Store, *rules.Table) {
	t.Helper()
	s := schema.NewStore()
	_, err := s.Load("")
	require.NoError(t, err)
	r := rules.NewTable()
	_, err = r.Load("", s)
	require.NoError(t, err)
	return s, r
}

func nf(concept string, minor int64, unit model.Unit) model.NormalizedFact {
	return model.NormalizedFact{Concept: concept, AmountMinorUnits: minor, Unit: unit}
}

func build(t *testing.T, facts ...model.NormalizedFact) (model.Form, *schema.Store) {
	t.Helper()
	s, r := tables(t)
	f, err := form.NewBuilder(s, r).Build(facts)
	require.NoError(t, err)
	return f, s
}

func TestExplain_Scenario(t *testing.T) {
	f, s := build(t,
		nf("ordinary share capital", 5_000_000_000, model.UnitMillion),
		nf("share premium", 2_000_000_000, model.UnitMillion),
		nf("retained earnings", 8_000_000_000, model.UnitMillion),
		nf("intangible assets", 4_000_000_000, model.UnitMillion),
	)

	expl := NewExplainer().Explain(f, s)

	assert.Equal(t, "50+20+80-40=110", expl.Trail)
	require.Len(t, expl.Trails, 1)
	assert.Equal(t, "100", expl.Trails[0].RowID)
	assert.Equal(t, model.UnitMillion, expl.Trails[0].Denomination)

	require.Len(t, expl.RulesApplied, 4)
	assert.Contains(t, expl.RulesApplied[0], "ordinary share capital -> 010 Ordinary share capital (+)")
	assert.Equal(t,
		"intangible assets -> 070 (-) Intangible assets (-): Intangible assets are deducted from CET1 [CRR Article 36(1)(b)]",
		expl.RulesApplied[3])
	assert.Contains(t, expl.RulesApplied[1], ": Share premium related to CET1 instruments")
}

func TestRuleLine(t *testing.T) {
	c := model.Contribution{
		Fact: nf("tier 1 notes", 100, model.UnitNone),
		Rule: model.Rule{Concept: "tier 1 notes", RowID: "200", Sign: model.SignPositive},
	}

	assert.Equal(t, "tier 1 notes -> 200 (+)", ruleLine(c, model.FormRow{}))

	c.Rule.Description = "Additional tier 1 instrument"
	c.Rule.Reference = "CRR Article 52"
	assert.Equal(t, "tier 1 notes -> 200 AT1 instruments (+): Additional tier 1 instrument [CRR Article 52]",
		ruleLine(c, model.FormRow{ID: "200", Description: "AT1 instruments"}))
}

func TestExplain_Empty(t *testing.T) {
	f, s := build(t)

	expl := NewExplainer().Explain(f, s)

	assert.Equal(t, "0=0", expl.Trail)
	assert.Empty(t, expl.RulesApplied)
	assert.NotNil(t, expl.RulesApplied)
}

func TestExplain_MixedUnitsUseSmallestScale(t *testing.T) {
	f, s := build(t,
		nf("ordinary share capital", 5_000_000_000, model.UnitMillion),
		nf("share premium", 50_000_000, model.UnitThousand),
	)

	expl := NewExplainer().Explain(f, s)

	assert.Equal(t, "50000+500=50500", expl.Trail)
	assert.Equal(t, model.UnitThousand, expl.Trails[0].Denomination)
}

func TestExplain_NegativeLeadingTerm(t *testing.T) {
	f, s := build(t,
		nf("intangible assets", 4_000_000_000, model.UnitMillion),
		nf("retained earnings", 1_000_000_000, model.UnitMillion),
	)

	expl := NewExplainer().Explain(f, s)

	assert.Equal(t, "-40+10=-30", expl.Trail)
}

func TestExplain_UnmatchedFactsNotListed(t *testing.T) {
	f, s := build(t,
		nf("retained earnings", 8_000_000_000, model.UnitMillion),
		nf("risk weighted assets", 8_000_000, model.UnitMillion),
	)

	expl := NewExplainer().Explain(f, s)

	assert.Equal(t, "80=80", expl.Trail)
	assert.Len(t, expl.RulesApplied, 1)
}

func TestDenomination(t *testing.T) {
	c := func(u model.Unit) model.Contribution {
		return model.Contribution{Fact: model.NormalizedFact{Unit: u}}
	}

	tests := []struct {
		name string
		in   []model.Contribution
		want model.Unit
	}{
		{"none", nil, model.UnitNone},
		{"single", []model.Contribution{c(model.UnitBillion)}, model.UnitBillion},
		{"mixed", []model.Contribution{c(model.UnitBillion), c(model.UnitMillion)}, model.UnitMillion},
		{"plain units win", []model.Contribution{c(model.UnitThousand), c(model.UnitNone)}, model.UnitNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Denomination(tt.in))
		})
	}
}
