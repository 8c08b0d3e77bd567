package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the magnitude a figure was stated in ("£50M" -> 50, UnitMillion)
type Unit string

const (
	UnitNone     Unit = "NONE"     // Stated in whole currency units
	UnitThousand Unit = "THOUSAND" // ×1e3
	UnitMillion  Unit = "MILLION"  // ×1e6
	UnitBillion  Unit = "BILLION"  // ×1e9
)

// unitScales maps each recognized unit to its power of ten
var unitScales = map[Unit]int32{
	UnitNone:     0,
	UnitThousand: 3,
	UnitMillion:  6,
	UnitBillion:  9,
}

// Exponent returns the power of ten for a recognized unit.
// ok is false for tokens the extractor could not map.
func (u Unit) Exponent() (exp int32, ok bool) {
	exp, ok = unitScales[u]
	return exp, ok
}

// Valid reports whether u is one of the four recognized units
func (u Unit) Valid() bool {
	_, ok := unitScales[u]
	return ok
}

// Suffix is the short label used in explanations ("M", "bn", ...)
func (u Unit) Suffix() string {
	switch u {
	case UnitThousand:
		return "k"
	case UnitMillion:
		return "M"
	case UnitBillion:
		return "bn"
	default:
		return ""
	}
}

// ParseUnit maps a free-form unit token to a Unit.
// Unrecognized tokens are returned verbatim (trimmed) so that
// normalization can reject them instead of guessing.
func ParseUnit(token string) Unit {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "", "none", "unit", "units", "ones":
		return UnitNone
	case "k", "thousand", "thousands", "000s":
		return UnitThousand
	case "m", "mn", "mm", "million", "millions":
		return UnitMillion
	case "b", "bn", "billion", "billions":
		return UnitBillion
	}
	if u := Unit(strings.ToUpper(t)); u.Valid() {
		return u
	}
	return Unit(strings.TrimSpace(token))
}

// ExtractedFact is a monetary fact as identified by the language service.
// Concept is free text and is not guaranteed to match any rule.
type ExtractedFact struct {
	Concept    string          `json:"concept"`
	RawAmount  decimal.Decimal `json:"raw_amount"`
	Unit       Unit            `json:"unit"`
	SourceText string          `json:"source_text,omitempty"` // Phrase the figure was read from
}

// NormalizedFact carries an amount in minor currency units (pence).
// The amount is never negative; sign comes from the matched Rule.
type NormalizedFact struct {
	Concept          string `json:"concept"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Unit             Unit   `json:"unit"` // Denomination the figure was stated in
	SourceText       string `json:"source_text,omitempty"`
}
