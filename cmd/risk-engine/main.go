package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sentinela-health/platform/pkg/alerts"
	"github.com/sentinela-health/platform/pkg/analyzer"
	"github.com/sentinela-health/platform/pkg/carelink"
	"github.com/sentinela-health/platform/pkg/common/config"
	"github.com/sentinela-health/platform/pkg/common/database"
	"github.com/sentinela-health/platform/pkg/common/kafka"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/consent"
	"github.com/sentinela-health/platform/pkg/content"
	"github.com/sentinela-health/platform/pkg/escalation"
	"github.com/sentinela-health/platform/pkg/insights"
	"github.com/sentinela-health/platform/pkg/observability/metrics"
	"github.com/sentinela-health/platform/pkg/orchestrator"
	"github.com/sentinela-health/platform/pkg/sessions"
)

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	contentRepo := content.NewRepository(db)
	consentRepo := consent.NewRepository(db)
	alertRepo := alerts.NewRepository(db)
	insightRepo := insights.NewRepository(db)
	linkRepo := carelink.NewRepository(db)
	sessionRepo := sessions.NewRepository(db)

	for name, migrate := range map[string]func() error{
		"content":  contentRepo.AutoMigrate,
		"consent":  consentRepo.AutoMigrate,
		"alerts":   alertRepo.AutoMigrate,
		"insights": insightRepo.AutoMigrate,
		"carelink": linkRepo.AutoMigrate,
		"sessions": sessionRepo.AutoMigrate,
	} {
		if err := migrate(); err != nil {
			logger.Log.WithError(err).WithField("tables", name).Fatal("failed to migrate tables")
		}
	}

	redisClient := database.GetRedis()
	gate := consent.NewGate(consentRepo, redisClient, cfg.ConsentCacheTTL)

	producer := kafka.NewProducer(cfg.AlertFeedTopic)
	defer producer.Close()

	analyzerClient := analyzer.NewClient(cfg.AnalyzerBaseURL, cfg.AnalyzerTimeout)
	scorer := content.NewScorer(contentRepo, gate, analyzerClient, cfg.MinTextLength)

	lexicon, err := escalation.LoadLexicon(cfg.StressorRulesPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load stressor rules")
	}
	assessor := escalation.NewAssessor(contentRepo, lexicon, cfg.EscalationWindow, cfg.RelapseWindow, cfg.StressorEntries)

	generator := alerts.NewGenerator(alertRepo, producer)
	lifecycle := alerts.NewLifecycle(alertRepo, producer)

	weeklyJob := insights.NewJob(
		linkRepo, insightRepo, contentRepo, sessionRepo,
		analyzerClient, assessor, generator, gate,
		cfg.WeeklyBatchSize, cfg.InsightStaleness,
	)

	engine := orchestrator.NewEngine(
		contentRepo, scorer, assessor, generator, weeklyJob,
		cfg.EntryLookback, cfg.EntryBatchSize,
	)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	alerts.NewHandler(alertRepo, lifecycle).Register(api)
	orchestrator.NewHandler(engine).Register(api)
	consent.NewHandler(consentRepo).Register(api)
	insights.NewHandler(insightRepo).Register(api)
	carelink.NewHandler(linkRepo).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Risk Engine started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	go engine.Run(ctx, cfg.TickInterval, cfg.WeeklyInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Risk Engine...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Risk Engine stopped")
}
