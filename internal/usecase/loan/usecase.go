package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ngnasoro-engine/internal/domain/loan"
	"ngnasoro-engine/internal/domain/uow"
	scheduleuc "ngnasoro-engine/internal/usecase/schedule"
	"ngnasoro-engine/pkg/id"
	"ngnasoro-engine/pkg/loanmath"
)

const maxDurationMonths = 360

// ScheduleGenerator builds the amortization table once a loan is disbursed.
type ScheduleGenerator interface {
	Generate(ctx context.Context, loanID string) (*scheduleuc.ScheduleDTO, error)
}

type Usecase struct {
	repo      loan.Repository
	tx        uow.UnitOfWork
	schedules ScheduleGenerator
	log       *logrus.Logger
}

func NewUsecase(r loan.Repository, tx uow.UnitOfWork, g ScheduleGenerator, log *logrus.Logger) *Usecase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{repo: r, tx: tx, schedules: g, log: log}
}

var hundred = decimal.NewFromInt(100)

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	switch {
	case !id.IsID32(in.ClientID):
		return nil, fmt.Errorf("%w: client_id must be 32 hex chars", loanmath.ErrInvalidArgument)
	case !in.Principal.IsPositive():
		return nil, fmt.Errorf("%w: principal must be positive", loanmath.ErrInvalidArgument)
	case in.DurationMonths < 1 || in.DurationMonths > maxDurationMonths:
		return nil, fmt.Errorf("%w: duration_months must be between 1 and %d", loanmath.ErrInvalidArgument, maxDurationMonths)
	case in.AnnualInterestRate.IsNegative() || in.AnnualInterestRate.GreaterThan(hundred):
		return nil, fmt.Errorf("%w: annual_interest_rate must be between 0 and 100", loanmath.ErrInvalidArgument)
	}

	l := &loan.Loan{
		LoanID:             id.NewID32(),
		ClientID:           in.ClientID,
		ClientEmail:        in.ClientEmail,
		SFDID:              in.SFDID,
		Principal:          loanmath.Round2(in.Principal),
		AnnualInterestRate: in.AnnualInterestRate,
		DurationMonths:     in.DurationMonths,
		Status:             loan.StatusPending,
		StatusUpdatedAt:    time.Now().UTC(),
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"loan_id": l.LoanID, "client_id": l.ClientID}).Info("loan created")
	return toDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, notFound(err)
	}
	return toDTO(l), nil
}

func (u *Usecase) Approve(ctx context.Context, loanID string, at time.Time) (*LoanDTO, error) {
	return u.transition(ctx, loanID, loan.StatusApproved, at, nil)
}

// Disburse confirms the disbursement then builds the schedule. A generation
// failure leaves the loan disbursed; the returned DTO carries the loan and
// the error says why there is no schedule. Generation can be retried on its
// own.
func (u *Usecase) Disburse(ctx context.Context, loanID string, at time.Time) (*DisbursementDTO, error) {
	at = at.UTC()
	dto, err := u.transition(ctx, loanID, loan.StatusDisbursed, at, func(l *loan.Loan) {
		l.DisbursedAt = &at
	})
	if err != nil {
		return nil, err
	}
	out := &DisbursementDTO{Loan: *dto}

	s, err := u.schedules.Generate(ctx, loanID)
	if err != nil {
		u.log.WithError(err).WithField("loan_id", loanID).Error("loan disbursed without schedule")
		return out, fmt.Errorf("schedule generation: %w", err)
	}
	out.Schedule = s
	return out, nil
}

func (u *Usecase) transition(ctx context.Context, loanID string, next loan.Status, at time.Time, mutate func(*loan.Loan)) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		prev := l.Status
		if err := l.Transition(next, at); err != nil {
			return fmt.Errorf("%w: %s -> %s", err, prev, next)
		}
		if mutate != nil {
			mutate(l)
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	u.log.WithFields(logrus.Fields{"loan_id": loanID, "status": next}).Info("loan status changed")
	return dto, nil
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:             l.LoanID,
		ClientID:           l.ClientID,
		SFDID:              l.SFDID,
		Principal:          l.Principal,
		AnnualInterestRate: l.AnnualInterestRate,
		DurationMonths:     l.DurationMonths,
		Status:             string(l.Status),
		DisbursedAt:        l.DisbursedAt,
		CreatedAt:          l.CreatedAt,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan.ErrNotFound
	}
	return err
}
