// Command web serves the cleaned sales dataset over HTTP: KPI and summary
// view endpoints, health checks and Prometheus metrics. The dataset is cached
// by content fingerprint and refreshed when the input file changes on disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/infrastructure"
	"salespulse/internal/loader"
	"salespulse/internal/services"
	transporthttp "salespulse/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := infrastructure.InitializeTracing(ctx, os.Stdout)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	registry := prometheus.NewRegistry()
	metrics := dataprocessing.NewMetrics(registry)

	dataService := services.NewDataService(
		cfg.Input.File,
		cfg.Input.Sheet,
		loader.NewLoader(logger),
		dataprocessing.NewPipeline(logger, metrics),
		dataprocessing.NewSummarizer(logger),
		logger)

	// Refresh the cached dataset when the export is rewritten.
	go func() {
		if err := dataService.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("File watcher stopped", slog.String("error", err.Error()))
		}
	}()

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Config:   cfg,
		Logger:   logger,
		Provider: dataService,
		Registry: registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("input", cfg.Input.File))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
