// Package normalize converts extracted amounts into integer minor units.
package normalize

import (
	"fmt"
	"math"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places of the currency (pence)
const MinorUnitExponent = 2

// maxMinorDigits is the number of integer digits of math.MaxInt64
const maxMinorDigits = 19

// maxAmountText bounds how much of a rejected amount is echoed back
const maxAmountText = 32

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
)

// Normalize converts an extracted fact into minor currency units:
//
//	amountMinorUnits = round_half_up(rawAmount × 10^unitExp × 100)
//
// All arithmetic is exact; the only rounding is the final half-up step.
func Normalize(fact model.ExtractedFact) (model.NormalizedFact, error) {
	exp, ok := fact.Unit.Exponent()
	if !ok {
		return model.NormalizedFact{}, amountError(fact, "unrecognized unit")
	}
	if fact.RawAmount.IsNegative() {
		return model.NormalizedFact{}, amountError(fact, "amount must not be negative")
	}

	if fact.RawAmount.IsZero() {
		return normalized(fact, 0), nil
	}

	// Decide the magnitude from coefficient digits and exponent before any
	// rescaling: a large exponent would otherwise expand into a huge big.Int.
	shift := int64(exp) + MinorUnitExponent
	digits := int64(fact.RawAmount.NumDigits()) + int64(fact.RawAmount.Exponent()) + shift
	switch {
	case digits > maxMinorDigits:
		return model.NormalizedFact{}, amountError(fact, "amount out of range")
	case digits < 0:
		// Below 0.1 minor units: rounds to zero
		return normalized(fact, 0), nil
	}

	// Shift is exact for decimals; Round(0) rounds half away from zero,
	// which is half-up for non-negative values.
	minor := fact.RawAmount.Shift(int32(shift)).Round(0)
	if minor.GreaterThan(maxMinorUnits) {
		return model.NormalizedFact{}, amountError(fact, "amount out of range")
	}

	return normalized(fact, minor.IntPart()), nil
}

func normalized(fact model.ExtractedFact, minorUnits int64) model.NormalizedFact {
	return model.NormalizedFact{
		Concept:          fact.Concept,
		AmountMinorUnits: minorUnits,
		Unit:             fact.Unit,
		SourceText:       fact.SourceText,
	}
}

// All normalizes every fact, returning the successes in order and one
// AmountError per rejected fact. A bad figure never blocks the rest.
func All(facts []model.ExtractedFact) ([]model.NormalizedFact, []*model.AmountError) {
	normalized := make([]model.NormalizedFact, 0, len(facts))
	var rejected []*model.AmountError

	for _, f := range facts {
		nf, err := Normalize(f)
		if err != nil {
			rejected = append(rejected, err.(*model.AmountError))
			continue
		}
		normalized = append(normalized, nf)
	}

	return normalized, rejected
}

// ToMajor converts minor units back into the denomination of unit,
// e.g. 5_000_000_000 pence in MILLION -> 50.
func ToMajor(minorUnits int64, unit model.Unit) decimal.Decimal {
	exp, ok := unit.Exponent()
	if !ok {
		exp = 0
	}
	return decimal.NewFromInt(minorUnits).Shift(-(exp + MinorUnitExponent))
}

func amountError(fact model.ExtractedFact, reason string) *model.AmountError {
	return &model.AmountError{
		Concept: fact.Concept,
		Amount:  amountText(fact.RawAmount),
		Unit:    fact.Unit,
		Reason:  reason,
	}
}

// amountText renders d for messages without expanding large exponents
func amountText(d decimal.Decimal) string {
	e := d.Exponent()
	if e > -maxAmountText && e < maxAmountText && d.NumDigits() <= maxAmountText {
		return d.String()
	}

	coef := d.Coefficient().String()
	if len(coef) > maxAmountText {
		coef = coef[:maxAmountText] + "..."
	}
	return fmt.Sprintf("%se%d", coef, e)
}
