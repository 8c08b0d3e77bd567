package extract

import (
	"testing"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_Scenario(t *testing.T) {
	text := `{"facts":[
		{"concept":"ordinary share capital","amount":50,"unit":"million","source_text":"£50M ordinary share capital"},
		{"concept":"share premium","amount":"20","unit":"M","source_text":"£20M share premium"},
		{"concept":"retained earnings","amount":80.0,"unit":"millions","source_text":"£80M retained earnings"},
		{"concept":"intangible assets","amount":"£40","unit":"mn","source_text":"£40M intangibles"}
	]}`

	facts, rejected, err := ParsePayload(text)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, facts, 4)

	for _, f := range facts {
		assert.Equal(t, model.UnitMillion, f.Unit, f.Concept)
	}
	assert.Equal(t, "50", facts[0].RawAmount.String())
	assert.Equal(t, "80", facts[2].RawAmount.String())
	assert.Equal(t, "40", facts[3].RawAmount.String())
	assert.Equal(t, "£40M intangibles", facts[3].SourceText)
}

func TestParsePayload_WrappedInProse(t *testing.T) {
	text := "Here is the extraction:\n```json\n{\"facts\":[{\"concept\":\"goodwill\",\"amount\":\"1,250.5\",\"unit\":\"thousand\",\"source_text\":\"goodwill of £1,250.5k\"}]}\n```\nLet me know!"

	facts, _, err := ParsePayload(text)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "1250.5", facts[0].RawAmount.String())
	assert.Equal(t, model.UnitThousand, facts[0].Unit)
}

func TestParsePayload_UnitTokens(t *testing.T) {
	tests := []struct {
		unit string
		want model.Unit
	}{
		{`null`, model.UnitNone},
		{`""`, model.UnitNone},
		{`"units"`, model.UnitNone},
		{`"K"`, model.UnitThousand},
		{`"000s"`, model.UnitThousand},
		{`"MM"`, model.UnitMillion},
		{`"bn"`, model.UnitBillion},
		{`"BILLION"`, model.UnitBillion},
		{`"lakh"`, model.Unit("lakh")},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			facts, _, err := ParsePayload(`{"facts":[{"concept":"c","amount":1,"unit":` + tt.unit + `}]}`)
			require.NoError(t, err)
			require.Len(t, facts, 1)
			assert.Equal(t, tt.want, facts[0].Unit)
		})
	}
}

func TestParsePayload_RejectsBadEntries(t *testing.T) {
	text := `{"facts":[
		{"concept":"","amount":5,"unit":"million","source_text":"£5M something"},
		{"concept":"share premium","amount":"twenty","unit":"million"},
		{"concept":"retained earnings","amount":null,"unit":"million"},
		{"concept":"goodwill","amount":true},
		{"concept":"retained earnings","amount":80,"unit":"million"}
	]}`

	facts, rejected, err := ParsePayload(text)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "retained earnings", facts[0].Concept)

	require.Len(t, rejected, 4)
	for _, issue := range rejected {
		assert.Equal(t, model.IssueUnmatchedFact, issue.Kind)
	}
	assert.Contains(t, rejected[0].Detail, "£5M something")
	assert.Equal(t, "share premium", rejected[1].Concept)
}

func TestParsePayload_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"no object", "I could not find any figures.", ErrNoJSONObject},
		{"reversed braces", "} nothing {", ErrNoJSONObject},
		{"no facts key", `{"items":[]}`, ErrNoFacts},
		{"null facts", `{"facts":null}`, ErrNoFacts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParsePayload(tt.text)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := ParsePayload(`{"facts":[{"concept":}]}`)
	assert.Error(t, err, "malformed JSON")
}

func TestParsePayload_EmptyFacts(t *testing.T) {
	facts, rejected, err := ParsePayload(`{"facts":[]}`)
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.Empty(t, rejected)
}

func TestBuildInstruction(t *testing.T) {
	got := BuildInstruction([]string{"ordinary share capital", "intangible assets"})
	assert.Contains(t, got, "   - ordinary share capital\n")
	assert.Contains(t, got, "   - intangible assets\n")
	assert.Contains(t, got, `{"facts":[`)
	assert.Equal(t, got, BuildInstruction([]string{"ordinary share capital", "intangible assets"}))

	assert.Contains(t, BuildInstruction(nil), "no concepts configured")
}
