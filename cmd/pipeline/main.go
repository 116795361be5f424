package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tripflow/internal/config"
	"tripflow/internal/economics"
	pipeerrors "tripflow/internal/errors"
	"tripflow/internal/exporter"
	"tripflow/internal/features"
	"tripflow/internal/infrastructure"
	"tripflow/internal/loader"
	"tripflow/internal/pipeline"
	"tripflow/pkg/contracts"
)

func main() {
	inDir := flag.String("in", "", "input directory with raw trip files (defaults to configured raw dir)")
	outDir := flag.String("out", "", "output directory for processed data and reports (defaults to configured processed dir)")
	strict := flag.Bool("strict", false, "abort when validation reports structural issues")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *inDir == "" {
		*inDir = cfg.Paths.RawDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.ProcessedDir
	}

	logger.Info("starting trip pipeline",
		slog.String("input_dir", *inDir),
		slog.String("output_dir", *outDir),
		slog.Bool("strict", *strict))

	if err := run(context.Background(), cfg, logger, *inDir, *outDir, *strict); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, inDir, outDir string, strict bool) error {
	trips := loader.New(pipeline.DefaultColumnRoles(), logger)
	raw, err := trips.LoadDir(ctx, inDir)
	if err != nil {
		return fmt.Errorf("load raw trips: %w", err)
	}
	if raw.Len() == 0 {
		return pipeerrors.ErrEmptyDataset
	}
	logger.Info("raw dataset loaded", slog.Int("rows", raw.Len()))

	validator := pipeline.NewValidator(cfg.Cleaning, logger)
	validation := validator.Validate(raw)
	for _, issue := range validation.Issues {
		logger.Warn("validation issue", slog.String("issue", issue))
	}
	for _, warning := range validation.Warnings {
		logger.Info("validation warning", slog.String("warning", warning))
	}
	if strict && validation.HasIssues() {
		return fmt.Errorf("validation found %d structural issues", len(validation.Issues))
	}

	cleaner := pipeline.NewCleaner(cfg.Cleaning, logger)
	cleaned, cleaning := cleaner.Clean(raw)

	extractor := features.NewExtractor(logger)
	feats, err := extractor.Extract(cleaned, features.DefaultOptions())
	if err != nil {
		return fmt.Errorf("derive temporal features: %w", err)
	}

	engine := economics.NewEngine(cfg.Pricing, logger)
	revenue := engine.ComputeRevenueMetrics(cleaned)
	subscription := engine.EstimateSubscriptionRevenue(cleaned)
	kpis := engine.ComputeKPIs(cleaned)

	logger.Info("economics computed",
		slog.Int("total_rides", revenue.TotalRides),
		slog.Float64("total_revenue", revenue.TotalRevenue),
		slog.Float64("arpu", kpis.ARPU),
		slog.Float64("ltv", kpis.LTV))

	csvWriter := exporter.NewCSVWriter(logger)
	if err := csvWriter.WriteTrips(filepath.Join(outDir, "trips_clean.csv"), cleaned); err != nil {
		return fmt.Errorf("export cleaned trips: %w", err)
	}
	if err := csvWriter.WriteFeatureMatrix(filepath.Join(outDir, "trips_features.csv"), cleaned, feats); err != nil {
		return fmt.Errorf("export feature matrix: %w", err)
	}

	excelWriter := exporter.NewExcelWriter(logger)
	summaryPath := filepath.Join(cfg.Paths.ReportsDir, "pipeline_summary.xlsx")
	if err := excelWriter.WriteSummaryWorkbook(summaryPath, validation, cleaning, revenue, subscription, kpis); err != nil {
		return fmt.Errorf("export summary workbook: %w", err)
	}

	manifest := exporter.NewRunManifest(validation, cleaning, revenue, kpis)
	manifestPath := filepath.Join(cfg.Paths.ReportsDir, "run_manifest.yaml")
	if err := exporter.WriteRunManifest(manifestPath, manifest, logger); err != nil {
		return fmt.Errorf("export run manifest: %w", err)
	}

	logger.Info("pipeline finished",
		slog.String("run_id", cleaning.RunID),
		slog.Int("cleaned_rows", cleaning.CleanedRows),
		slog.Float64("quality_score", cleaning.QualityScore),
		slog.String("summary", summaryPath))

	return nil
}
