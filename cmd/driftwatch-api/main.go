package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hive-corporation/driftwatch/internal/adapter/handler"
	"github.com/hive-corporation/driftwatch/internal/adapter/metrics"
	"github.com/hive-corporation/driftwatch/internal/adapter/provider"
	"github.com/hive-corporation/driftwatch/internal/app"
	"github.com/hive-corporation/driftwatch/internal/config"
	"github.com/hive-corporation/driftwatch/internal/core/ports"
)

func main() {
	cfg, envLoaded := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if !envLoaded {
		logger.Info("No .env file found, using process environment")
	}

	metrics.InitMetrics()

	// A structural failure in the knowledge base must keep the API from
	// starting at all.
	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	session, err := app.LoadSession(loadCtx, logger, knowledgeBases(cfg.KnowledgeBaseFiles), provider.NewYAMLDatasetProvider(cfg.DatasetFile))
	cancel()
	if err != nil {
		logger.Fatal("Failed to load knowledge base and dataset", zap.Error(err))
	}

	router := mux.NewRouter()
	handler.NewRestHandler(session, logger).Routes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.Use(handler.LoggingMiddleware(logger))

	srv := &http.Server{
		Addr:         ":" + cfg.ListenPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Driftwatch REST API listening", zap.String("port", cfg.ListenPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func knowledgeBases(paths []string) []ports.KnowledgeBaseProvider {
	kbs := make([]ports.KnowledgeBaseProvider, 0, len(paths))
	for _, path := range paths {
		kbs = append(kbs, provider.NewSTIXBundleProvider(path))
	}
	return kbs
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level == "debug" {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}
