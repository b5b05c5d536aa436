package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"interviewd/internal/config"
	"interviewd/internal/execution"
	"interviewd/internal/httpapi"
	"interviewd/internal/interview"
	"interviewd/internal/logger"
	"interviewd/internal/observability"
	"interviewd/internal/provider"
	"interviewd/internal/retrieval"
	"interviewd/internal/session"
	"interviewd/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zl, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	recorder, err := storage.NewRecorder(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("turn recorder init failed", zap.Error(err))
	}
	defer recorder.Close()

	var source retrieval.Source = retrieval.NopSource{}
	if path := strings.TrimSpace(cfg.QuestionBankPath); path != "" {
		bank, err := retrieval.LoadBank(path)
		if err != nil {
			zl.Fatal("question bank load failed", zap.String("path", path), zap.Error(err))
		}
		source = bank
		zl.Info("question bank loaded", zap.String("path", path))
	}

	client, err := provider.New(ctx, provider.Config{
		Name:         cfg.Provider,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		QwenEndpoint: cfg.QwenEndpoint,
		QwenAPIKey:   cfg.QwenAPIKey,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
	})
	if err != nil {
		zl.Fatal("provider init failed", zap.String("provider", cfg.Provider), zap.Error(err))
	}
	zl.Info("model provider ready", zap.String("provider", cfg.Provider))

	runner := execution.NewRunner(cfg.ProviderTimeout, zl)
	runner.SetFallbackHook(func(label string) {
		metrics.ProviderFallbacks.WithLabelValues(label).Inc()
	})

	orchestrator := interview.NewOrchestrator(
		session.NewInMemoryStore(),
		client,
		runner,
		recorder,
		source,
		metrics,
		zl,
	)

	api := httpapi.New(cfg, orchestrator, metrics, zl)
	orchestrator.SetTurnPublisher(api.Hub())

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		zl.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	zl.Info("shutdown complete")
}
