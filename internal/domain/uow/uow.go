package uow

import (
	"context"

	"ngnasoro-engine/internal/domain/loan"
	"ngnasoro-engine/internal/domain/schedule"
)

type Repos struct {
	Loans        loan.Repository
	Installments schedule.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
