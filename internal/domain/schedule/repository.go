package schedule

import (
	"context"
	"time"
)

type Repository interface {
	// ExistsForLoan reports whether at least one installment exists.
	ExistsForLoan(ctx context.Context, loanID uint64) (bool, error)
	// CreateBatch inserts the whole table in installment_number order.
	CreateBatch(ctx context.Context, rows []*Installment) error
	ListByLoan(ctx context.Context, loanID uint64) ([]*Installment, error)
	// ListOverdue returns pending or overdue rows with due_date < asOf.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*OverdueInstallment, error)
	UpdateAccrual(ctx context.Context, id uint64, a Accrual) error
}
