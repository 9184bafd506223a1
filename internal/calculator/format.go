package calculator

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var cents = decimal.NewFromInt(100)

// FormatUSD renders an amount as US dollars rounded to the cent, e.g. "$1,234.50".
func FormatUSD(d decimal.Decimal) string {
	return money.New(d.Mul(cents).Round(0).IntPart(), money.USD).Display()
}

// FormatDelta renders a change and its percentage as "+2.25 (+1.52%)".
// The sign follows the unrounded value, so -0.001 renders as "-0.00".
func FormatDelta(change, percent decimal.Decimal) string {
	return signed(change) + " (" + signed(percent) + "%)"
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + d.Abs().StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}
