package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ngnasoro-engine/internal/domain/loan"
)

// ErrScheduleExists is returned when a loan already has installments.
var ErrScheduleExists = fmt.Errorf("%w: schedule already exists", loan.ErrInvalidLoanState)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Installment is one scheduled payment. Rows are created once per loan and
// afterwards only the accrual fields change.
type Installment struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID             uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_installments_loan_number,priority:1" json:"-"`
	InstallmentNumber  int             `gorm:"column:installment_number;not null;uniqueIndex:ux_installments_loan_number,priority:2" json:"installment_number"`
	DueDate            time.Time       `gorm:"column:due_date;type:date;not null;index:idx_installments_status_due,priority:2" json:"due_date"`
	PrincipalAmount    decimal.Decimal `gorm:"column:principal_amount;type:decimal(18,2);not null" json:"principal_amount"`
	InterestAmount     decimal.Decimal `gorm:"column:interest_amount;type:decimal(18,2);not null" json:"interest_amount"`
	TotalAmount        decimal.Decimal `gorm:"column:total_amount;type:decimal(18,2);not null" json:"total_amount"`
	RemainingPrincipal decimal.Decimal `gorm:"column:remaining_principal;type:decimal(18,2);not null" json:"remaining_principal"`
	PaidAmount         decimal.Decimal `gorm:"column:paid_amount;type:decimal(18,2);not null;default:0" json:"paid_amount"`
	LateFee            decimal.Decimal `gorm:"column:late_fee;type:decimal(18,2);not null;default:0" json:"late_fee"`
	DaysOverdue        int             `gorm:"column:days_overdue;not null;default:0" json:"days_overdue"`
	Status             Status          `gorm:"column:status;type:varchar(16);not null;default:'pending';index:idx_installments_status_due,priority:1" json:"status"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Installment) TableName() string { return "installments" }

// AmountDue is what is still owed on the installment, never negative.
func (i *Installment) AmountDue() decimal.Decimal {
	due := i.TotalAmount.Sub(i.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// OverdueInstallment is an installment joined with the identity needed to
// route a reminder to the loan's client.
type OverdueInstallment struct {
	Installment `gorm:"embedded"`
	LoanRef     string `gorm:"column:loan_ref"`
	ClientID    string `gorm:"column:client_id"`
	ClientEmail string `gorm:"column:client_email"`
}

// Accrual holds the fields the daily run is allowed to overwrite.
type Accrual struct {
	Status      Status
	DaysOverdue int
	LateFee     decimal.Decimal
}
