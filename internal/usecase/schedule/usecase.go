package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ngnasoro-engine/internal/domain/audit"
	"ngnasoro-engine/internal/domain/cache"
	domainLoan "ngnasoro-engine/internal/domain/loan"
	domainSchedule "ngnasoro-engine/internal/domain/schedule"
	"ngnasoro-engine/internal/domain/uow"
	"ngnasoro-engine/pkg/loanmath"
)

// CachePrefix namespaces every cached schedule read.
const CachePrefix = "schedule:"

const defaultCacheTTL = 5 * time.Minute

type Options struct {
	Cache    cache.Cache // optional
	Audit    audit.Recorder
	Logger   *logrus.Logger
	CacheTTL time.Duration
}

type Usecase struct {
	uow          uow.UnitOfWork
	loans        domainLoan.Repository
	installments domainSchedule.Repository
	cache        cache.Cache
	audit        audit.Recorder
	log          *logrus.Logger
	cacheTTL     time.Duration
}

func NewUsecase(tx uow.UnitOfWork, loans domainLoan.Repository, installments domainSchedule.Repository, opts Options) *Usecase {
	u := &Usecase{
		uow:          tx,
		loans:        loans,
		installments: installments,
		cache:        opts.Cache,
		audit:        opts.Audit,
		log:          opts.Logger,
		cacheTTL:     opts.CacheTTL,
	}
	if u.log == nil {
		u.log = logrus.StandardLogger()
	}
	if u.cacheTTL <= 0 {
		u.cacheTTL = defaultCacheTTL
	}
	return u
}

func CacheKey(loanID string) string { return CachePrefix + loanID }

// Generate builds and stores the amortization table of a disbursed loan.
// The loan row stays locked from the state check to the bulk insert, so a
// loan gets at most one schedule.
func (u *Usecase) Generate(ctx context.Context, loanID string) (*ScheduleDTO, error) {
	var out *ScheduleDTO
	var loanPK uint64

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if !l.Schedulable() {
			return fmt.Errorf("%w: loan %s is %s", domainLoan.ErrInvalidLoanState, l.LoanID, l.Status)
		}
		exists, err := r.Installments.ExistsForLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		if exists {
			return domainSchedule.ErrScheduleExists
		}

		entries, err := loanmath.GenerateSchedule(l.Principal, l.AnnualInterestRate, l.DurationMonths, loanmath.DateOf(*l.DisbursedAt))
		if err != nil {
			return err
		}
		rows := make([]*domainSchedule.Installment, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, &domainSchedule.Installment{
				LoanID:             l.ID,
				InstallmentNumber:  e.Number,
				DueDate:            e.DueDate,
				PrincipalAmount:    e.Principal,
				InterestAmount:     e.Interest,
				TotalAmount:        e.Total,
				RemainingPrincipal: e.RemainingPrincipal,
				Status:             domainSchedule.StatusPending,
			})
		}
		if err := r.Installments.CreateBatch(ctx, rows); err != nil {
			return err
		}
		loanPK = l.ID
		out = toScheduleDTO(l.LoanID, rows)
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}

	u.invalidate(ctx, CacheKey(loanID))
	u.record(ctx, "schedule.generated", map[string]any{
		"loan_id":         loanID,
		"installments":    len(out.Installments),
		"monthly_payment": out.MonthlyPayment.StringFixed(2),
	})
	u.log.WithFields(logrus.Fields{
		"loan_id":         loanID,
		"loan_pk":         loanPK,
		"installments":    len(out.Installments),
		"monthly_payment": out.MonthlyPayment.StringFixed(2),
	}).Info("schedule generated")
	return out, nil
}

// List returns the stored schedule, read through the cache when one is set.
func (u *Usecase) List(ctx context.Context, loanID string) (*ScheduleDTO, error) {
	key := CacheKey(loanID)
	if u.cache != nil {
		raw, err := u.cache.Get(ctx, key)
		switch {
		case err == nil:
			var dto ScheduleDTO
			if jerr := json.Unmarshal(raw, &dto); jerr == nil {
				return &dto, nil
			}
			u.log.WithField("key", key).Warn("discarding undecodable cached schedule")
		case !errors.Is(err, cache.ErrMiss):
			u.log.WithError(err).WithField("key", key).Warn("schedule cache read failed")
		}
	}

	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, notFound(err)
	}
	rows, err := u.installments.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	dto := toScheduleDTO(l.LoanID, rows)

	if u.cache != nil && len(rows) > 0 {
		if raw, err := json.Marshal(dto); err == nil {
			if err := u.cache.Set(ctx, key, raw, u.cacheTTL); err != nil {
				u.log.WithError(err).WithField("key", key).Warn("schedule cache write failed")
			}
		}
	}
	return dto, nil
}

func (u *Usecase) Summary(ctx context.Context, loanID string) (*SummaryDTO, error) {
	s, err := u.List(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return summarize(s), nil
}

func (u *Usecase) invalidate(ctx context.Context, prefix string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidatePrefix(ctx, prefix); err != nil {
		u.log.WithError(err).WithField("prefix", prefix).Warn("schedule cache invalidation failed")
	}
}

func (u *Usecase) record(ctx context.Context, action string, details map[string]any) {
	if u.audit == nil {
		return
	}
	if err := u.audit.Record(ctx, audit.SystemActor, action, audit.SeverityInfo, details); err != nil {
		u.log.WithError(err).WithField("action", action).Warn("audit record failed")
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainLoan.ErrNotFound
	}
	return err
}
