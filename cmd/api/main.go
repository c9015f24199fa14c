package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	httpadp "ngnasoro-engine/internal/adapter/http"
	idemp "ngnasoro-engine/internal/adapter/middleware"
	"ngnasoro-engine/internal/adapter/notify"
	"ngnasoro-engine/internal/adapter/repository/mysql"
	"ngnasoro-engine/internal/config"
	"ngnasoro-engine/internal/domain/notification"
	"ngnasoro-engine/internal/infrastructure/cache"
	"ngnasoro-engine/internal/infrastructure/db"
	"ngnasoro-engine/internal/infrastructure/logging"
	"ngnasoro-engine/internal/infrastructure/scheduler"
	"ngnasoro-engine/internal/usecase/accrual"
	"ngnasoro-engine/internal/usecase/loan"
	"ngnasoro-engine/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	loc, _ := cfg.Location()

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("mysql")
	}
	if err := db.Migrate(gdb); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}

	loans := mysql.NewLoanRepository(gdb)
	installments := mysql.NewInstallmentRepository(gdb)
	auditRepo := mysql.NewAuditRepository(gdb)
	tx := mysql.NewGormUoW(gdb)
	scheduleCache := cache.NewRedisCache(rdb)

	var channels []notification.Notifier
	smtpCfg := notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SenderEmail,
	}
	if smtpCfg.Enabled() {
		channels = append(channels, notify.NewEmailNotifier(smtpCfg, log))
	}
	notifier := notify.NewFanout(mysql.NewNotificationRepository(gdb), log, channels...)

	scheduleUC := schedule.NewUsecase(tx, loans, installments, schedule.Options{
		Cache:    scheduleCache,
		Audit:    auditRepo,
		Logger:   log,
		CacheTTL: cfg.ScheduleCacheTTL(),
	})
	loanUC := loan.NewUsecase(loans, tx, scheduleUC, log)
	accrualUC := accrual.NewUsecase(installments, notifier, auditRepo, accrual.Options{
		Dedupe:  notify.NewRedisDeduper(rdb, notify.DefaultDedupeTTL),
		Cache:   scheduleCache,
		BaseURL: cfg.AppBaseURL,
		Logger:  log,
	})

	sched, err := scheduler.New(cfg.AccrualCron, loc, accrualUC, log)
	if err != nil {
		log.WithError(err).Fatal("scheduler")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	httpadp.Register(e, httpadp.Handlers{
		Health:   httpadp.NewHandler(),
		Loans:    httpadp.NewLoanHandler(loanUC),
		Schedule: httpadp.NewScheduleHandler(scheduleUC),
		Accrual:  httpadp.NewAccrualHandler(accrualUC, loc),
	}, idemp.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log))

	sched.Start()

	addr := ":" + cfg.AppPort
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		log.Warn("accrual run still in progress at shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("redis close")
	}
	log.WithFields(logrus.Fields{"service": "ngnasoro-engine"}).Info("stopped")
}
