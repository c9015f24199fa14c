package loanmath

import "github.com/shopspring/decimal"

// moneyPlaces is the scale every computed amount is rounded to. Principals
// are whole FCFA; interest, installments and fees carry two decimals.
const moneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Round2 rounds half away from zero to 2 places, which is half-up for the
// non-negative amounts this package produces.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(moneyPlaces) }

// Percent returns pct% of amount, rounded to money scale.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}

// NonNegative clamps d to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
