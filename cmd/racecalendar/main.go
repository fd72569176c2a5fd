package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"race-calendar/internal/bot"
	"race-calendar/internal/config"
	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/metrics"
	"race-calendar/internal/repository"
	"race-calendar/internal/service"
)

const jobTimeout = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	log.Info("starting race calendar", slog.String("env", cfg.Env), slog.String("gateway", cfg.GatewayURL))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("race calendar stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	gw, err := repository.NewGateway(cfg.GatewayURL, cfg.RequestTimeout, log, m)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	events := repository.NewEventRepository(gw)
	users := repository.NewUserRepository(gw)
	accounts := repository.NewAccountRepository(db)

	catalog := service.NewCatalogService(log, events,
		repository.NewChampionshipRepository(gw),
		repository.NewCategoryRepository(gw),
		service.NewImageRotation(cfg.ImagePattern, cfg.ImageCount),
		m,
	)
	if _, err := catalog.Refresh(ctx); err != nil {
		log.Warn("initial catalog load failed, will retry on demand", sl.Err(err))
	}

	telegramBot, err := bot.New(cfg.TelegramToken, log, bot.Services{
		Catalog:  catalog,
		Detail:   service.NewDetailService(log, events, users, catalog),
		Identity: service.NewIdentityService(log, accounts, users),
		Digest:   service.NewDigestService(catalog, accounts),
	})
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	refresh := scheduler.Bind(ctx, "catalog-refresh", jobTimeout, func(ctx context.Context) error {
		_, err := catalog.Refresh(ctx)
		return err
	})
	if _, err := scheduler.ScheduleInterval(cfg.RefreshInterval, refresh); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	if cfg.DigestTime != "" {
		digest := scheduler.Bind(ctx, "digest", jobTimeout, telegramBot.SendDigests)
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, digest); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}
	scheduler.Start()
	log.Info("scheduler started", slog.Int("jobs", scheduler.Entries()))
	defer scheduler.Stop()

	if cfg.MetricsPort > 0 {
		go func() {
			if err := m.Run(ctx, log, cfg.MetricsPort); err != nil {
				log.Error("metrics server stopped", sl.Err(err))
			}
		}()
	}

	log.Info("race calendar bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return log
}
