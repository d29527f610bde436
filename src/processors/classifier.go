package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/riconcilia/src/models"
)

var hundred = decimal.NewFromInt(100)

// Tolerance is a two-tier threshold on the absolute difference.
// Strict bounds QUADRATO, Loose bounds ANOMALIA_LIEVE; both inclusive.
type Tolerance struct {
	Strict decimal.Decimal
	Loose  decimal.Decimal
}

// NewTolerance builds a Tolerance from string literals such as "0.50".
func NewTolerance(strict, loose string) Tolerance {
	return Tolerance{Strict: decimal.RequireFromString(strict), Loose: decimal.RequireFromString(loose)}
}

// Tier classifies an absolute difference without the missing-data override.
func (t Tolerance) Tier(absDiff decimal.Decimal) models.Status {
	switch {
	case absDiff.LessThanOrEqual(t.Strict):
		return models.StatusBalanced
	case absDiff.LessThanOrEqual(t.Loose):
		return models.StatusMinorAnomaly
	default:
		return models.StatusMajorAnomaly
	}
}

// Classify applies the missing-data override before the tiers: a positive theoretical
// amount with no actual money is NON_TROVATO, zero against zero is QUADRATO.
func (t Tolerance) Classify(theoretical, actual decimal.Decimal) models.Status {
	if actual.IsZero() {
		if theoretical.IsPositive() {
			return models.StatusNotFound
		}
		if theoretical.IsZero() {
			return models.StatusBalanced
		}
	}
	return t.Tier(theoretical.Sub(actual).Abs())
}

// PercentOfTheoretical returns diff/theoretical*100 rounded to two places.
// It is undefined, and ok is false, unless theoretical is positive.
func PercentOfTheoretical(diff, theoretical decimal.Decimal) (decimal.Decimal, bool) {
	if !theoretical.IsPositive() {
		return decimal.Zero, false
	}
	return diff.Div(theoretical).Mul(hundred).Round(2), true
}
