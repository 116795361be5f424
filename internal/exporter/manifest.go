package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"tripflow/internal/economics"
	"tripflow/pkg/contracts"
	"tripflow/pkg/contracts/domain"
)

// RunManifest is the machine-readable summary of one pipeline run,
// written next to the exported data so downstream consumers can check
// provenance without opening the workbook.
type RunManifest struct {
	RunID        string                    `yaml:"run_id"`
	GeneratedAt  time.Time                 `yaml:"generated_at"`
	Version      string                    `yaml:"version"`
	DataFormat   string                    `yaml:"data_format"`
	Validation   domain.ValidationReport   `yaml:"validation"`
	Cleaning     domain.CleaningReport     `yaml:"cleaning"`
	Revenue      economics.RevenueMetrics  `yaml:"revenue"`
	KPIs         economics.KPIReport       `yaml:"kpis"`
}

// NewRunManifest assembles a manifest for the given run artifacts.
func NewRunManifest(
	validation domain.ValidationReport,
	cleaning domain.CleaningReport,
	revenue economics.RevenueMetrics,
	kpis economics.KPIReport,
) RunManifest {
	return RunManifest{
		RunID:       cleaning.RunID,
		GeneratedAt: time.Now().UTC(),
		Version:     contracts.Version,
		DataFormat:  contracts.DataFormatVersion,
		Validation:  validation,
		Cleaning:    cleaning,
		Revenue:     revenue,
		KPIs:        kpis,
	}
}

// WriteRunManifest writes the manifest as YAML at filePath.
func WriteRunManifest(filePath string, manifest RunManifest, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal run manifest: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write run manifest: %w", err)
	}

	logger.Info("run manifest written",
		slog.String("file_path", filePath),
		slog.String("run_id", manifest.RunID))
	return nil
}
