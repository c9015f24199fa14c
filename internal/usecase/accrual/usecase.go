package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ngnasoro-engine/internal/domain/audit"
	"ngnasoro-engine/internal/domain/cache"
	"ngnasoro-engine/internal/domain/notification"
	"ngnasoro-engine/internal/domain/schedule"
	scheduleuc "ngnasoro-engine/internal/usecase/schedule"
	"ngnasoro-engine/pkg/loanmath"
)

// ActionSevereDelinquency is the audit action for installments past the
// critical threshold.
const ActionSevereDelinquency = "installment.severe_delinquency"

type Options struct {
	Dedupe  notification.Deduper // optional
	Cache   cache.Cache          // optional
	BaseURL string
	Logger  *logrus.Logger
}

type Usecase struct {
	installments schedule.Repository
	notifier     notification.Notifier
	audit        audit.Recorder
	dedupe       notification.Deduper
	cache        cache.Cache
	baseURL      string
	log          *logrus.Logger
}

func NewUsecase(installments schedule.Repository, n notification.Notifier, rec audit.Recorder, opts Options) *Usecase {
	u := &Usecase{
		installments: installments,
		notifier:     n,
		audit:        rec,
		dedupe:       opts.Dedupe,
		cache:        opts.Cache,
		baseURL:      opts.BaseURL,
		log:          opts.Logger,
	}
	if u.log == nil {
		u.log = logrus.StandardLogger()
	}
	return u
}

// Run classifies every installment due before asOf: it sets days overdue
// and the late fee, moves pending rows to overdue, sends threshold reminders
// and audits severe delinquencies. Only the calendar date of asOf is used.
//
// Rows are handled one by one and a failed row does not stop the run.
// Running twice for the same asOf leaves the same state.
func (u *Usecase) Run(ctx context.Context, asOf time.Time) (*Result, error) {
	asOf = loanmath.DateOf(asOf)
	res := &Result{AsOf: asOf.Format(time.DateOnly)}
	log := u.log.WithField("as_of", res.AsOf)

	rows, err := u.installments.ListOverdue(ctx, asOf)
	if err != nil {
		log.WithError(err).Error("accrual: overdue scan failed")
		return nil, fmt.Errorf("%w: %v", ErrOverdueScan, err)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			u.finish(ctx, log, res)
			return res, err
		}
		res.Scanned++
		u.process(ctx, asOf, row, res)
	}

	u.finish(ctx, log, res)
	return res, nil
}

func (u *Usecase) process(ctx context.Context, asOf time.Time, row *schedule.OverdueInstallment, res *Result) {
	days := loanmath.DaysBetween(row.DueDate, asOf)
	a := schedule.Accrual{
		Status:      schedule.StatusOverdue,
		DaysOverdue: days,
		LateFee:     schedule.LateFee(row.AmountDue(), days),
	}
	log := u.log.WithFields(logrus.Fields{
		"as_of":              asOf.Format(time.DateOnly),
		"loan_id":            row.LoanRef,
		"installment_id":     row.ID,
		"installment_number": row.InstallmentNumber,
		"days_overdue":       days,
		"late_fee":           a.LateFee.StringFixed(2),
	})

	if err := u.installments.UpdateAccrual(ctx, row.ID, a); err != nil {
		res.Failed++
		log.WithError(err).Error("accrual: update installment failed")
		return
	}
	res.Updated++
	if row.Status == schedule.StatusPending {
		res.Transitioned++
		log.Info("accrual: installment overdue")
	}

	if schedule.IsReminderDay(days) {
		switch sent, err := u.remind(ctx, row, a); {
		case err != nil:
			res.NotificationsFailed++
			log.WithError(err).Warn("accrual: reminder not delivered")
		case sent:
			res.NotificationsEmitted++
		default:
			res.NotificationsSkipped++
		}
	}

	if schedule.IsSevere(days) {
		if err := u.audit.Record(ctx, audit.SystemActor, ActionSevereDelinquency, audit.SeverityCritical, severeDetails(row, a, asOf)); err != nil {
			log.WithError(err).Warn("accrual: severe delinquency audit failed")
		} else {
			res.SevereEvents++
		}
	}
}

// remind sends the threshold reminder once. It reports false when the key
// was already claimed by an earlier run or the channel dropped a repeat.
func (u *Usecase) remind(ctx context.Context, row *schedule.OverdueInstallment, a schedule.Accrual) (bool, error) {
	n := reminder(row, a, u.baseURL)

	claimed := false
	if u.dedupe != nil {
		ok, err := u.dedupe.Claim(ctx, n.DedupeKey)
		switch {
		case err != nil:
			// the notifier still drops repeated keys
			u.log.WithError(err).WithField("key", n.DedupeKey).Warn("accrual: dedupe claim failed")
		case !ok:
			return false, nil
		default:
			claimed = true
		}
	}

	if err := u.notifier.Notify(ctx, n); err != nil {
		if errors.Is(err, notification.ErrDuplicate) {
			return false, nil
		}
		if claimed {
			if rerr := u.dedupe.Release(ctx, n.DedupeKey); rerr != nil {
				u.log.WithError(rerr).WithField("key", n.DedupeKey).Warn("accrual: dedupe release failed")
			}
		}
		return false, err
	}
	return true, nil
}

func (u *Usecase) finish(ctx context.Context, log *logrus.Entry, res *Result) {
	if res.Updated > 0 && u.cache != nil {
		// also after cancellation, rows may already be written
		if err := u.cache.InvalidatePrefix(context.WithoutCancel(ctx), scheduleuc.CachePrefix); err != nil {
			log.WithError(err).Warn("accrual: schedule cache invalidation failed")
		}
	}
	log.WithFields(logrus.Fields{
		"scanned":               res.Scanned,
		"updated":               res.Updated,
		"transitioned":          res.Transitioned,
		"failed":                res.Failed,
		"notifications_emitted": res.NotificationsEmitted,
		"notifications_skipped": res.NotificationsSkipped,
		"notifications_failed":  res.NotificationsFailed,
		"severe_events":         res.SevereEvents,
	}).Info("accrual: run finished")
}
