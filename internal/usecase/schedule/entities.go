package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	domainSchedule "ngnasoro-engine/internal/domain/schedule"
)

type InstallmentDTO struct {
	Number             int                   `json:"installment_number"`
	DueDate            string                `json:"due_date"` // YYYY-MM-DD
	PrincipalAmount    decimal.Decimal       `json:"principal_amount"`
	InterestAmount     decimal.Decimal       `json:"interest_amount"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	RemainingPrincipal decimal.Decimal       `json:"remaining_principal"`
	PaidAmount         decimal.Decimal       `json:"paid_amount"`
	LateFee            decimal.Decimal       `json:"late_fee"`
	DaysOverdue        int                   `json:"days_overdue"`
	Status             domainSchedule.Status `json:"status"`
}

type ScheduleDTO struct {
	LoanID         string           `json:"loan_id"`
	MonthlyPayment decimal.Decimal  `json:"monthly_payment"`
	Installments   []InstallmentDTO `json:"installments"`
}

type SummaryDTO struct {
	LoanID            string          `json:"loan_id"`
	TotalInstallments int             `json:"total_installments"`
	PaidCount         int             `json:"paid_count"`
	PendingCount      int             `json:"pending_count"`
	OverdueCount      int             `json:"overdue_count"`
	TotalPrincipal    decimal.Decimal `json:"total_principal"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	TotalLateFees     decimal.Decimal `json:"total_late_fees"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	NextDueDate       string          `json:"next_due_date,omitempty"`
}

func toInstallmentDTO(i *domainSchedule.Installment) InstallmentDTO {
	return InstallmentDTO{
		Number:             i.InstallmentNumber,
		DueDate:            i.DueDate.Format(time.DateOnly),
		PrincipalAmount:    i.PrincipalAmount,
		InterestAmount:     i.InterestAmount,
		TotalAmount:        i.TotalAmount,
		RemainingPrincipal: i.RemainingPrincipal,
		PaidAmount:         i.PaidAmount,
		LateFee:            i.LateFee,
		DaysOverdue:        i.DaysOverdue,
		Status:             i.Status,
	}
}

func toScheduleDTO(loanID string, rows []*domainSchedule.Installment) *ScheduleDTO {
	dto := &ScheduleDTO{LoanID: loanID, Installments: make([]InstallmentDTO, 0, len(rows))}
	for _, r := range rows {
		dto.Installments = append(dto.Installments, toInstallmentDTO(r))
	}
	if len(rows) > 0 {
		dto.MonthlyPayment = rows[0].TotalAmount
	}
	return dto
}

func summarize(s *ScheduleDTO) *SummaryDTO {
	out := &SummaryDTO{LoanID: s.LoanID, TotalInstallments: len(s.Installments)}
	for _, i := range s.Installments {
		out.TotalPrincipal = out.TotalPrincipal.Add(i.PrincipalAmount)
		out.TotalInterest = out.TotalInterest.Add(i.InterestAmount)
		out.TotalLateFees = out.TotalLateFees.Add(i.LateFee)
		out.TotalPaid = out.TotalPaid.Add(i.PaidAmount)

		switch i.Status {
		case domainSchedule.StatusPaid:
			out.PaidCount++
			continue
		case domainSchedule.StatusOverdue:
			out.OverdueCount++
		default:
			out.PendingCount++
		}
		if out.NextDueDate == "" {
			out.NextDueDate = i.DueDate
		}
		owed := i.TotalAmount.Add(i.LateFee).Sub(i.PaidAmount)
		if owed.IsPositive() {
			out.Outstanding = out.Outstanding.Add(owed)
		}
	}
	return out
}
