package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"school-management-platform/internal/config"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/adapter"
	aiAdapters "school-management-platform/internal/infra/adapters/ai"
	pg "school-management-platform/internal/infra/db/postgres"
	"school-management-platform/internal/infra/logging"
	"school-management-platform/internal/infra/metrics"
	red "school-management-platform/internal/infra/redis"
	"school-management-platform/internal/infra/sched"
	"school-management-platform/internal/infra/web"
	"school-management-platform/internal/infra/webhook"
	"school-management-platform/internal/infra/worker"
	"school-management-platform/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logging.Global = *logger
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	eventRepo := pg.NewBillingEventRepo(pool)
	memberRepo := pg.NewMemberRepo(pool)
	submissionRepo := pg.NewSubmissionRepo(pool)
	quizRepo := pg.NewQuizRepoCacheDecorator(pg.NewQuizRepo(pool), redisClient, cfg.Redis.TTL)

	// ---- AI marking (OpenAI -> Gemini, best effort) ----
	var markers []adapter.MarkingAdapter
	if cfg.AI.OpenAIKey != "" {
		m, err := aiAdapters.NewOpenAIMarker(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("openai marker: %v", err)
		}
		markers = append(markers, m)
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("marking provider: openai")
	}
	if cfg.AI.GeminiKey != "" {
		m, err := aiAdapters.NewGeminiMarker(ctx, cfg.AI.GeminiKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("gemini marker: %v", err)
		}
		markers = append(markers, m)
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("marking provider: gemini")
	}
	var marker adapter.MarkingAdapter
	if len(markers) == 0 {
		logger.Warn().Msg("no AI provider configured; marking feedback disabled")
		marker = aiAdapters.NewNoopMarker()
	} else {
		marker = aiAdapters.NewFallbackMarker(markers...)
	}
	marker = aiAdapters.NewLimitedMarker(marker, cfg.AI.ConcurrentLimit, cfg.AI.MaxPromptTokens)

	// ---- Background workers ----
	feedbackPool := worker.NewPool(cfg.Server.Workers)
	feedbackPool.Start(ctx)
	defer feedbackPool.Stop()

	// ---- Use cases ----
	catalog := model.DefaultCatalog()
	entitleUC := usecase.NewEntitlementUseCase(catalog, subRepo, memberRepo, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, eventRepo, txManager, logger)
	enrollUC := usecase.NewEnrollmentUseCase(memberRepo, entitleUC, logger)
	quizUC := usecase.NewQuizUseCase(quizRepo, logger)
	submissionUC := usecase.NewSubmissionUseCase(quizRepo, submissionRepo, entitleUC, marker, feedbackPool, rateLimiter, logger)
	statsUC := usecase.NewStatsUseCase(subRepo, eventRepo, logger)

	// ---- Servers ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL)
	apiServer := web.NewServer(subUC, entitleUC, enrollUC, quizUC, submissionUC, statsUC, auth, cfg.Auth.AdminKey, logger)
	go func() {
		if err := apiServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server stopped")
		}
	}()

	hookServer := webhook.NewServer(subUC, cfg.Webhook.Path, cfg.Webhook.Secret, logger)
	go func() {
		if err := hookServer.Start(cfg.Webhook.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("webhook server stopped")
		}
	}()

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.MetricsPort).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	// ---- Renewal reminders ----
	reminder := sched.NewRenewalReminderWorker(cfg.Scheduler.ReminderInterval, cfg.Scheduler.ReminderDays, subUC, locker, rateLimiter, logger)
	go func() { _ = reminder.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api shutdown")
	}
	if err := hookServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("webhook shutdown")
	}
	_ = metricsServer.Shutdown(shutdownCtx)
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
