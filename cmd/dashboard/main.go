package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"intraday-signals/config"
	"intraday-signals/internal/app"
	"intraday-signals/internal/dashboard"
	"intraday-signals/internal/evaluator"
	"intraday-signals/internal/logger"
	"intraday-signals/internal/markethours"
	"intraday-signals/internal/metrics"
	"intraday-signals/internal/notification"
	sig "intraday-signals/internal/signal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	log, err := logger.Setup("dashboard", logger.Options{
		Level: logger.ParseLevel(cfg.LogLevel),
		File:  cfg.LogFile,
	})
	if err != nil {
		slog.Error("logger", "error", err)
		os.Exit(1)
	}
	log.Info("starting", "symbols", cfg.Symbols, "interval", cfg.Interval.String(),
		"refresh_seconds", cfg.RefreshSeconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown requested")
		cancel()
	}()

	registry := sig.DefaultRegistry()
	engine, err := sig.NewEngine(cfg.Signal, registry, log)
	if err != nil {
		log.Error("signal config rejected", "error", err)
		os.Exit(1)
	}
	log.Info("signal engine ready", "indicators", engine.Indicators(), "max_window", engine.MaxWindow())

	session, err := markethours.ByName(cfg.Market)
	if err != nil {
		log.Error("market session", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	stack, err := app.Build(ctx, cfg, m, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer stack.Close()

	health := metrics.NewHealthStatus(3 * time.Duration(cfg.RefreshSeconds) * time.Second)
	if stack.Redis != nil {
		health.CheckRedis(ctx, stack.Redis)
	}
	if stack.Archive != nil {
		health.CheckSQLite(ctx, stack.Archive.DB())
	}
	health.StartLivenessChecker(ctx, stack.Redis, archiveDB(stack), 15*time.Second)

	hub := dashboard.NewHub(m, log)
	poller := &dashboard.Poller{
		Batch: &evaluator.Batch{
			Source:  stack.Source,
			Engine:  engine,
			Workers: cfg.Workers,
			Metrics: m,
			Logger:  log,
		},
		Tickers:         cfg.Symbols,
		Interval:        cfg.Interval,
		RefreshInterval: time.Duration(cfg.RefreshSeconds) * time.Second,
		Session:         session,
		SkipWhenClosed:  cfg.SkipWhenClosed,
		Notifier:        notifiers(cfg, log),
		Hub:             hub,
		Metrics:         m,
		Health:          health,
		Logger:          log,
	}
	if stack.Publisher != nil {
		poller.Publisher = stack.Publisher
		poller.Seed(ctx)
	}
	go poller.Run(ctx)

	if cfg.MetricsAddr != "" {
		ms := metrics.NewServer(cfg.MetricsAddr, health, reg)
		ms.Start()
		defer ms.Stop(context.Background())
	}

	srv := dashboard.NewHTTPServer(cfg.HTTPAddr, dashboard.NewRouter(dashboard.Deps{
		Poller:   poller,
		Engine:   engine,
		Registry: registry,
		Hub:      hub,
		Health:   health,
		Gatherer: reg,
		Logger:   log,
	}))
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	srv.Shutdown(shutdownCtx)
	if stack.Publisher != nil && stack.Publisher.Pending() > 0 {
		stack.Publisher.Flush(shutdownCtx)
	}
	log.Info("stopped")
}

func notifiers(cfg *config.Config, log *slog.Logger) notification.Notifier {
	ns := notification.Multi{notification.NewLogNotifier(log)}
	if cfg.WebhookURL != "" {
		ns = append(ns, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		ns = append(ns, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return ns
}

func archiveDB(s *app.Stack) *sql.DB {
	if s.Archive == nil {
		return nil
	}
	return s.Archive.DB()
}
