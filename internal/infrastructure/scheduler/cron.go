package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ngnasoro-engine/internal/usecase/accrual"
	"ngnasoro-engine/pkg/loanmath"
)

// DefaultSpec runs the accrual every morning at 06:00.
const DefaultSpec = "0 6 * * *"

const runTimeout = 30 * time.Minute

type AccrualRunner interface {
	Run(ctx context.Context, asOf time.Time) (*accrual.Result, error)
}

// Scheduler triggers the daily accrual. The as-of date is today's calendar
// date in loc, read when the job fires.
type Scheduler struct {
	cron   *cron.Cron
	runner AccrualRunner
	loc    *time.Location
	log    *logrus.Logger
	now    func() time.Time
}

func New(spec string, loc *time.Location, r AccrualRunner, log *logrus.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{runner: r, loc: loc, log: log, now: time.Now}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("entries", len(s.cron.Entries())).Info("accrual scheduler started")
}

// Stop prevents new runs; the returned context is done once a running one ends.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

func (s *Scheduler) tick() {
	asOf := loanmath.DateIn(s.now(), s.loc)
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	log := s.log.WithField("as_of", asOf.Format(time.DateOnly))
	res, err := s.runner.Run(ctx, asOf)
	if err != nil {
		log.WithError(err).Error("scheduled accrual failed")
		return
	}
	log.WithFields(logrus.Fields{"updated": res.Updated, "failed": res.Failed}).Info("scheduled accrual done")
}
