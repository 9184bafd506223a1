package calculator

import (
	"time"

	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateChange returns close - open.
func CalculateChange(open, close decimal.Decimal) decimal.Decimal {
	return close.Sub(open)
}

// CalculatePercentChange returns (close-open)/open*100, or 0 when open is exactly 0.
func CalculatePercentChange(open, close decimal.Decimal) decimal.Decimal {
	if open.IsZero() {
		return decimal.Zero
	}
	return CalculateChange(open, close).Div(open).Mul(hundred)
}

// Normalize computes the derived metrics of a quote, localizing its timestamp to loc.
func Normalize(q *model.Quote, loc *time.Location) model.Metrics {
	local := LocalTime(q.Timestamp, loc)
	return model.Metrics{
		Change:        CalculateChange(q.Open, q.Close),
		PercentChange: CalculatePercentChange(q.Open, q.Close),
		LocalTime:     local,
		Localized:     FormatLocal(local),
	}
}
