package schedule

import "github.com/shopspring/decimal"

const (
	// GraceDays is the last day overdue that carries no fee.
	GraceDays = 7
	// SevereAfterDays: installments later than this are audited as critical.
	SevereAfterDays = 30
)

var (
	lateRate   = decimal.RequireFromString("0.05")
	severeRate = decimal.RequireFromString("0.10")
)

// reminderDays are the only days overdue on which the client is notified.
var reminderDays = map[int]struct{}{1: {}, 7: {}, 30: {}}

// LateFee returns the fee for an installment daysOverdue late on amountDue.
// The fee is a flat share of what is due, recomputed every run.
//
//	0-7   -> 0
//	8-30  -> 5%
//	31+   -> 10%
func LateFee(amountDue decimal.Decimal, daysOverdue int) decimal.Decimal {
	if amountDue.IsNegative() {
		amountDue = decimal.Zero
	}
	switch {
	case daysOverdue <= GraceDays:
		return decimal.Zero
	case daysOverdue <= SevereAfterDays:
		return amountDue.Mul(lateRate).Round(2)
	default:
		return amountDue.Mul(severeRate).Round(2)
	}
}

// IsReminderDay reports whether daysOverdue is a notification threshold.
func IsReminderDay(daysOverdue int) bool {
	_, ok := reminderDays[daysOverdue]
	return ok
}

// IsSevere reports whether the installment is past the critical threshold.
func IsSevere(daysOverdue int) bool { return daysOverdue > SevereAfterDays }
