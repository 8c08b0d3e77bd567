package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoJSONObject is returned when the completion holds no {...} span
	ErrNoJSONObject = errors.New("no JSON object in response")

	// ErrNoFacts is returned when the object has no "facts" array
	ErrNoFacts = errors.New(`response object has no "facts" array`)
)

type payload struct {
	Facts *[]rawFact `json:"facts"`
}

type rawFact struct {
	Concept    string          `json:"concept"`
	Amount     json.RawMessage `json:"amount"`
	Unit       *string         `json:"unit"`
	SourceText string          `json:"source_text"`
}

// ParsePayload decodes a completion into facts.
//
// The JSON object may be wrapped in prose or code fences: everything from
// the first '{' to the last '}' is decoded. Entries with an empty concept
// or an amount that is not a decimal are returned as UNMATCHED_FACT
// issues instead of failing the whole payload.
func ParsePayload(text string) ([]model.ExtractedFact, []model.ValidationIssue, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, nil, ErrNoJSONObject
	}

	var p payload
	dec := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.Facts == nil {
		return nil, nil, ErrNoFacts
	}

	facts := make([]model.ExtractedFact, 0, len(*p.Facts))
	var rejected []model.ValidationIssue

	for i, raw := range *p.Facts {
		concept := strings.TrimSpace(raw.Concept)
		if concept == "" {
			rejected = append(rejected, model.ValidationIssue{
				Kind:   model.IssueUnmatchedFact,
				Detail: fmt.Sprintf("fact %d has no concept%s", i, quoteSource(raw.SourceText)),
			})
			continue
		}

		amount, err := parseAmount(raw.Amount)
		if err != nil {
			rejected = append(rejected, model.ValidationIssue{
				Kind:    model.IssueUnmatchedFact,
				Concept: concept,
				Detail:  fmt.Sprintf("amount for %q is not a number: %v%s", concept, err, quoteSource(raw.SourceText)),
			})
			continue
		}

		unit := ""
		if raw.Unit != nil {
			unit = *raw.Unit
		}

		facts = append(facts, model.ExtractedFact{
			Concept:    concept,
			RawAmount:  amount,
			Unit:       model.ParseUnit(unit),
			SourceText: strings.TrimSpace(raw.SourceText),
		})
	}

	return facts, rejected, nil
}

// parseAmount accepts a JSON number or a string such as "£1,250.5"
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Decimal{}, errors.New("missing")
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Decimal{}, err
		}
		s = cleanAmount(str)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q", s)
	}
	return d, nil
}

// cleanAmount strips thousands separators and one leading currency symbol
func cleanAmount(s string) string {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"£", "$", "€"} {
		if rest, ok := strings.CutPrefix(s, sym); ok {
			s = rest
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

func quoteSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	return fmt.Sprintf(" (from %q)", source)
}
