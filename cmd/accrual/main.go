// Command accrual runs one delinquency accrual pass and exits. It is meant
// for backfills and for hosts that schedule jobs outside the API process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"ngnasoro-engine/internal/adapter/notify"
	"ngnasoro-engine/internal/adapter/repository/mysql"
	"ngnasoro-engine/internal/config"
	"ngnasoro-engine/internal/domain/notification"
	"ngnasoro-engine/internal/infrastructure/cache"
	"ngnasoro-engine/internal/infrastructure/db"
	"ngnasoro-engine/internal/infrastructure/logging"
	"ngnasoro-engine/internal/usecase/accrual"
	"ngnasoro-engine/pkg/loanmath"
)

func main() { os.Exit(run()) }

func run() int {
	asOfFlag := flag.String("as-of", "", "accrual date YYYY-MM-DD (default: today in ACCRUAL_TIMEZONE)")
	timeout := flag.Duration("timeout", 30*time.Minute, "abort the run after this long")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, os.Stderr)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid config")
		return 2
	}
	loc, _ := cfg.Location()

	asOf := loanmath.DateIn(time.Now(), loc)
	if *asOfFlag != "" {
		t, err := time.Parse(time.DateOnly, *asOfFlag)
		if err != nil {
			log.WithError(err).Error("invalid -as-of")
			return 2
		}
		asOf = t
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.WithError(err).Error("mysql")
		return 1
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Error("redis")
		return 1
	}
	defer rdb.Close()

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

	uc := accrual.NewUsecase(
		mysql.NewInstallmentRepository(gdb),
		notify.NewFanout(mysql.NewNotificationRepository(gdb), log, channels...),
		mysql.NewAuditRepository(gdb),
		accrual.Options{
			Dedupe:  notify.NewRedisDeduper(rdb, notify.DefaultDedupeTTL),
			Cache:   cache.NewRedisCache(rdb),
			BaseURL: cfg.AppBaseURL,
			Logger:  log,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	res, err := uc.Run(ctx, asOf)
	if res != nil {
		_ = json.NewEncoder(os.Stdout).Encode(res)
	}
	if err != nil {
		log.WithError(err).Error("accrual run failed")
		return 1
	}
	return 0
}
