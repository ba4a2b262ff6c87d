// Command pipeline runs one cleaning pass over a sales export: load the
// file, clean and enrich it, compute every summary view and write the report
// artifacts.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/loader"
	"salespulse/internal/services"
)

func main() {
	inFile := flag.String("in", "", "input sales export (.csv latin-1 or .xlsx); overrides config")
	outDir := flag.String("out", "", "output directory for reports; overrides config")
	sheet := flag.String("sheet", "", "worksheet name for xlsx input; overrides config")
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if *inFile != "" {
		cfg.Input.File = *inFile
	}
	if *outDir != "" {
		cfg.Reports.Dir = *outDir
	}
	if *sheet != "" {
		cfg.Input.Sheet = *sheet
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting sales export cleaning run",
		slog.String("input", cfg.Input.File),
		slog.String("reports_dir", cfg.Reports.Dir))

	registry := prometheus.NewRegistry()
	metrics := dataprocessing.NewMetrics(registry)

	l := loader.NewLoader(logger)
	pipeline := dataprocessing.NewPipeline(logger, metrics)
	summarizer := dataprocessing.NewSummarizer(logger)

	data, err := os.ReadFile(cfg.Input.File)
	if err != nil {
		return err
	}

	raw, err := l.FromBytes(ctx, data, filepath.Ext(cfg.Input.File), cfg.Input.Sheet)
	if err != nil {
		return err
	}

	table, err := pipeline.Clean(ctx, raw)
	if err != nil {
		return err
	}
	table.Fingerprint = services.Fingerprint(data)

	views, err := summarizer.AllViews(ctx, table)
	if err != nil {
		return err
	}
	kpis := summarizer.KPIs(table)

	if err := exporter.NewExporter(logger).WriteAll(ctx, cfg.Reports.Dir, table, views, kpis); err != nil {
		return err
	}

	logger.Info("Cleaning run complete",
		slog.Int("rows_in", len(raw.Rows)),
		slog.Int("rows_cleaned", len(table.Records)),
		slog.Float64("total_sales", kpis.TotalSales),
		slog.Int("total_orders", kpis.TotalOrders),
		slog.Float64("average_rating", kpis.AverageRating),
		slog.Float64("average_order_value", kpis.AverageOrderValue))
	return nil
}
