package loanmath

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument is returned for malformed generator input. It is never
// retried.
var ErrInvalidArgument = errors.New("invalid argument")

// powPrecision bounds the scale of (1+r)^n while it is being built up.
const powPrecision = 24

// Entry is one row of an amortization table.
type Entry struct {
	Number             int
	DueDate            time.Time
	Principal          decimal.Decimal
	Interest           decimal.Decimal
	Total              decimal.Decimal
	RemainingPrincipal decimal.Decimal
}

// MonthlyRate converts an annual percentage into a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(twelve).Div(hundred)
}

// MonthlyPayment is the unrounded fixed payment
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// or P / n when r is zero.
func MonthlyPayment(principal, monthlyRate decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	if monthlyRate.IsZero() {
		return principal.Div(n)
	}
	factor := compound(monthlyRate, months)
	return principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
}

func compound(rate decimal.Decimal, n int) decimal.Decimal {
	base := rate.Add(decimal.NewFromInt(1))
	out := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		out = out.Mul(base).Round(powPrecision)
	}
	return out
}

// GenerateSchedule builds the fixed-payment table for a loan disbursed on
// startDate. Every amount is rounded to money scale as it is produced and the
// balance is carried rounded, so each row satisfies
//
//	Principal + Interest == Total
//	Remaining == previous Remaining - Principal
//
// Total is the rounded payment on every row but the last. The last row
// repays whatever principal is still owed, which absorbs the accumulated
// rounding: the principals always sum to the loan amount exactly.
func GenerateSchedule(principal, annualRatePercent decimal.Decimal, months int, startDate time.Time) ([]Entry, error) {
	switch {
	case !principal.IsPositive():
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidArgument, principal)
	case months < 1:
		return nil, fmt.Errorf("%w: duration must be at least 1 month, got %d", ErrInvalidArgument, months)
	case annualRatePercent.IsNegative():
		return nil, fmt.Errorf("%w: interest rate must not be negative, got %s", ErrInvalidArgument, annualRatePercent)
	case startDate.IsZero():
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidArgument)
	}

	rate := MonthlyRate(annualRatePercent)
	payment := Round2(MonthlyPayment(principal, rate, months))

	out := make([]Entry, 0, months)
	remaining := Round2(principal)
	for i := 1; i <= months; i++ {
		interest := Round2(remaining.Mul(rate))
		repaid := payment.Sub(interest)
		if i == months || repaid.GreaterThan(remaining) {
			repaid = remaining
		}
		remaining = remaining.Sub(repaid)
		out = append(out, Entry{
			Number:             i,
			DueDate:            AddMonths(startDate, i),
			Principal:          repaid,
			Interest:           interest,
			Total:              repaid.Add(interest),
			RemainingPrincipal: remaining,
		})
	}
	return out, nil
}
