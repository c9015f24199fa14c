package installmentmock

import (
	"context"
	"time"

	"ngnasoro-engine/internal/domain/schedule"
)

var _ schedule.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies schedule.Repository.
type Repo struct {
	ExistsForLoanFn func(ctx context.Context, loanID uint64) (bool, error)
	CreateBatchFn   func(ctx context.Context, rows []*schedule.Installment) error
	ListByLoanFn    func(ctx context.Context, loanID uint64) ([]*schedule.Installment, error)
	ListOverdueFn   func(ctx context.Context, asOf time.Time) ([]*schedule.OverdueInstallment, error)
	UpdateAccrualFn func(ctx context.Context, id uint64, a schedule.Accrual) error
}

func (m *Repo) ExistsForLoan(ctx context.Context, loanID uint64) (bool, error) {
	if m.ExistsForLoanFn != nil {
		return m.ExistsForLoanFn(ctx, loanID)
	}
	return false, nil
}

func (m *Repo) CreateBatch(ctx context.Context, rows []*schedule.Installment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, rows)
	}
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanID uint64) ([]*schedule.Installment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOverdue(ctx context.Context, asOf time.Time) ([]*schedule.OverdueInstallment, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, asOf)
	}
	return nil, context.Canceled
}

func (m *Repo) UpdateAccrual(ctx context.Context, id uint64, a schedule.Accrual) error {
	if m.UpdateAccrualFn != nil {
		return m.UpdateAccrualFn(ctx, id, a)
	}
	return nil
}
