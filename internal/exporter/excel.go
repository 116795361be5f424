package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"tripflow/internal/economics"
	"tripflow/pkg/contracts/domain"
)

// ExcelWriter produces the run summary workbook: data quality on one
// sheet, revenue and unit economics on the others.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates an Excel writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteSummaryWorkbook writes validation, cleaning, revenue, and KPI
// results into a single workbook at filePath.
func (w *ExcelWriter) WriteSummaryWorkbook(
	filePath string,
	validation domain.ValidationReport,
	cleaning domain.CleaningReport,
	revenue economics.RevenueMetrics,
	subscription economics.SubscriptionEstimate,
	kpis economics.KPIReport,
) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeQualitySheet(f, validation, cleaning); err != nil {
		return err
	}
	if err := w.writeRevenueSheet(f, revenue, subscription); err != nil {
		return err
	}
	if err := w.writeKPISheet(f, kpis); err != nil {
		return err
	}

	// The default sheet is replaced by Data Quality.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("summary workbook written", slog.String("file_path", filePath))
	return nil
}

func (w *ExcelWriter) writeQualitySheet(f *excelize.File, validation domain.ValidationReport, cleaning domain.CleaningReport) error {
	const sheet = "Data Quality"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Cleaning run", cleaning.RunID},
		{"Original rows", cleaning.OriginalRows},
		{"Cleaned rows", cleaning.CleanedRows},
		{"Removed rows", cleaning.RemovedRows},
		{"Removal %", cleaning.RemovalPercentage},
		{"Quality score", cleaning.QualityScore},
		{},
		{"Stage", "Removed"},
	}
	for _, s := range cleaning.Stages {
		rows = append(rows, []interface{}{s.Stage, s.Removed})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Validation issues"})
	for _, issue := range validation.Issues {
		rows = append(rows, []interface{}{issue})
	}
	rows = append(rows, []interface{}{"Validation warnings"})
	for _, warning := range validation.Warnings {
		rows = append(rows, []interface{}{warning})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Column", "Nulls", "Null %"})
	for _, col := range domain.AllColumns {
		if summary, ok := validation.NullCounts[col]; ok {
			rows = append(rows, []interface{}{string(col), summary.Count, summary.Percentage})
		}
	}

	return writeRows(f, sheet, rows)
}

func (w *ExcelWriter) writeRevenueSheet(f *excelize.File, revenue economics.RevenueMetrics, subscription economics.SubscriptionEstimate) error {
	const sheet = "Revenue"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Total rides", revenue.TotalRides},
		{"Total ride revenue", revenue.TotalRevenue},
		{"Average ride cost", revenue.AvgRideCost},
		{},
		{"User tier", "Rides", "Revenue", "Avg cost"},
	}
	for _, key := range sortedKeys(revenue.ByUserTier) {
		g := revenue.ByUserTier[key]
		rows = append(rows, []interface{}{key, g.Rides, g.Revenue, g.AvgCost})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Bike type", "Rides", "Revenue", "Avg cost"})
	for _, key := range sortedKeys(revenue.ByBikeType) {
		g := revenue.ByBikeType[key]
		rows = append(rows, []interface{}{key, g.Rides, g.Revenue, g.AvgCost})
	}

	rows = append(rows, []interface{}{},
		[]interface{}{"Subscription revenue (estimate)", subscription.SubscriptionRevenue},
		[]interface{}{"Monthly fee", subscription.MonthlyFee},
		[]interface{}{"Estimated subscribers", subscription.EstimatedSubscribers},
		[]interface{}{"Active months", subscription.ActiveMonths},
	)

	return writeRows(f, sheet, rows)
}

func (w *ExcelWriter) writeKPISheet(f *excelize.File, kpis economics.KPIReport) error {
	const sheet = "KPIs"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"ARPU", kpis.ARPU},
		{"LTV", kpis.LTV},
		{"CAC", kpis.CAC},
		{"ROI %", kpis.ROI},
		{"LTV/CAC", kpis.LTVCACRatio},
		{"Gross margin", kpis.GrossMargin},
		{"Total revenue", kpis.TotalRevenue},
		{"Ride revenue", kpis.RideRevenue},
		{"Subscription revenue", kpis.SubscriptionRevenue},
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

func sortedKeys(m map[string]economics.GroupMetrics) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
