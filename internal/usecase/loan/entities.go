package loan

import (
	"time"

	"github.com/shopspring/decimal"

	scheduleuc "ngnasoro-engine/internal/usecase/schedule"
)

type CreateLoanInput struct {
	ClientID           string          `json:"client_id"`
	ClientEmail        string          `json:"client_email"`
	SFDID              string          `json:"sfd_id"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	DurationMonths     int             `json:"duration_months"`
}

type LoanDTO struct {
	LoanID             string          `json:"loan_id"`
	ClientID           string          `json:"client_id"`
	SFDID              string          `json:"sfd_id"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	DurationMonths     int             `json:"duration_months"`
	Status             string          `json:"status"`
	DisbursedAt        *time.Time      `json:"disbursed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// DisbursementDTO is the loan after disbursement with the schedule built for
// it. Schedule is nil when generation failed.
type DisbursementDTO struct {
	Loan     LoanDTO                 `json:"loan"`
	Schedule *scheduleuc.ScheduleDTO `json:"schedule,omitempty"`
}
