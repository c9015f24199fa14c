package loan

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidLoanState  = errors.New("invalid loan state")
	ErrInvalidTransition = fmt.Errorf("%w: transition not allowed", ErrInvalidLoanState)
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDisbursed Status = "disbursed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

type Loan struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID             string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	ClientID           string          `gorm:"size:32;index:idx_loans_client" json:"client_id"`
	ClientEmail        string          `gorm:"size:255" json:"client_email,omitempty"`
	SFDID              string          `gorm:"column:sfd_id;size:32;index:idx_loans_sfd" json:"sfd_id"`
	Principal          decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal"`
	AnnualInterestRate decimal.Decimal `gorm:"type:decimal(6,3)" json:"annual_interest_rate"`
	DurationMonths     int             `json:"duration_months"`
	DisbursedAt        *time.Time      `json:"disbursed_at,omitempty"`
	Status             Status          `gorm:"type:enum('pending','approved','disbursed','active','completed','rejected');default:'pending'" json:"status"`
	StatusUpdatedAt    time.Time       `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Schedulable reports whether an amortization table may be built for l.
func (l *Loan) Schedulable() bool {
	if l.DisbursedAt == nil {
		return false
	}
	return l.Status == StatusDisbursed || l.Status == StatusActive
}

// Transition moves l to next when the lifecycle allows it.
func (l *Loan) Transition(next Status, at time.Time) error {
	if !allowed[l.Status][next] {
		return ErrInvalidTransition
	}
	l.Status = next
	l.StatusUpdatedAt = at.UTC()
	return nil
}

var allowed = map[Status]map[Status]bool{
	StatusPending:   {StatusApproved: true, StatusRejected: true},
	StatusApproved:  {StatusDisbursed: true, StatusRejected: true},
	StatusDisbursed: {StatusActive: true, StatusCompleted: true},
	StatusActive:    {StatusCompleted: true},
}
