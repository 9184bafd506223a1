package calculator

import (
	"fmt"

	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

// PeerTolerance is the closed relative band used to match peers.
var PeerTolerance = decimal.RequireFromString("0.05")

// CalculateDeviation returns |candidate-reference| / reference.
// The reference close must be positive.
func CalculateDeviation(reference, candidate decimal.Decimal) (decimal.Decimal, error) {
	if !reference.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: reference close %s", model.ErrDivisionByZero, reference)
	}
	return candidate.Sub(reference).Abs().Div(reference), nil
}

// WithinTolerance reports whether candidate lies in the closed band
// reference*(1±tolerance). Evaluated without division so the boundary is exact.
func WithinTolerance(reference, candidate, tolerance decimal.Decimal) (bool, error) {
	if !reference.IsPositive() {
		return false, fmt.Errorf("%w: reference close %s", model.ErrDivisionByZero, reference)
	}
	return candidate.Sub(reference).Abs().LessThanOrEqual(reference.Mul(tolerance)), nil
}
