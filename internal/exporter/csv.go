package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tripflow/internal/features"
	"tripflow/pkg/contracts/domain"
)

// CSVWriter persists datasets and derived feature matrices as CSV.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes rows to filePath, creating parent directories.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return writer.Error()
}

// WriteTrips writes the dataset's bound columns to a CSV file.
func (w *CSVWriter) WriteTrips(filePath string, ds *domain.Dataset) error {
	cols := ds.BoundColumns()
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = string(col)
	}

	records := make([][]string, 0, ds.Len())
	for i := range ds.Records {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = cellValue(&ds.Records[i], col)
		}
		records = append(records, row)
	}

	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// featureHeaders is the column order of the exported feature matrix.
var featureHeaders = []string{
	"ride_id", "year", "month", "day", "hour", "minute", "weekday",
	"day_of_year", "week_of_year", "date", "season",
	"is_weekend", "is_morning_peak", "is_evening_peak", "is_peak_hour", "is_holiday",
	"duration_minutes", "duration_seconds", "duration_category",
	"is_very_short_trip", "is_short_trip", "is_medium_trip", "is_long_trip",
	"hour_sin", "hour_cos", "weekday_sin", "weekday_cos",
	"month_sin", "month_cos", "day_of_year_sin", "day_of_year_cos",
	"hour_weekday_interaction", "season_weekend_interaction", "month_hour_interaction",
}

// WriteFeatureMatrix writes the derived features aligned with the
// dataset rows. Rows whose features are invalid (null source timestamp)
// are skipped.
func (w *CSVWriter) WriteFeatureMatrix(filePath string, ds *domain.Dataset, feats []features.TripFeatures) error {
	records := make([][]string, 0, len(feats))
	for i := range feats {
		f := &feats[i]
		if !f.Valid {
			continue
		}
		rideID := ""
		if i < len(ds.Records) {
			rideID = ds.Records[i].RideID
		}
		records = append(records, []string{
			rideID,
			strconv.Itoa(f.Year), strconv.Itoa(f.Month), strconv.Itoa(f.Day),
			strconv.Itoa(f.Hour), strconv.Itoa(f.Minute), strconv.Itoa(f.Weekday),
			strconv.Itoa(f.DayOfYear), strconv.Itoa(f.WeekOfYear),
			f.Date.Format("2006-01-02"), strconv.Itoa(f.Season),
			formatBool(f.IsWeekend), formatBool(f.IsMorningPeak),
			formatBool(f.IsEveningPeak), formatBool(f.IsPeakHour), formatBool(f.IsHoliday),
			formatFloat(f.DurationMinutes), formatFloat(f.DurationSeconds), f.DurationCategory,
			formatBool(f.IsVeryShortTrip), formatBool(f.IsShortTrip),
			formatBool(f.IsMediumTrip), formatBool(f.IsLongTrip),
			formatFloat(f.HourSin), formatFloat(f.HourCos),
			formatFloat(f.WeekdaySin), formatFloat(f.WeekdayCos),
			formatFloat(f.MonthSin), formatFloat(f.MonthCos),
			formatFloat(f.DayOfYearSin), formatFloat(f.DayOfYearCos),
			strconv.Itoa(f.HourWeekday), strconv.Itoa(f.SeasonWeekend), strconv.Itoa(f.MonthHour),
		})
	}

	return w.WriteCSV(filePath, WriteOptions{Headers: featureHeaders, Records: records, BOMPrefix: true})
}

func cellValue(rec *domain.TripRecord, col domain.Column) string {
	switch col {
	case domain.ColRideID:
		return rec.RideID
	case domain.ColStartedAt:
		return formatTime(rec.StartedAt)
	case domain.ColEndedAt:
		return formatTime(rec.EndedAt)
	case domain.ColRideableType:
		return rec.RideableType
	case domain.ColMemberCasual:
		return rec.MemberCasual
	case domain.ColStartStationName:
		return stringOrEmpty(rec.StartStationName)
	case domain.ColStartStationID:
		return stringOrEmpty(rec.StartStationID)
	case domain.ColEndStationName:
		return stringOrEmpty(rec.EndStationName)
	case domain.ColEndStationID:
		return stringOrEmpty(rec.EndStationID)
	case domain.ColStartLat:
		return floatOrEmpty(rec.StartLat)
	case domain.ColStartLng:
		return floatOrEmpty(rec.StartLng)
	case domain.ColEndLat:
		return floatOrEmpty(rec.EndLat)
	case domain.ColEndLng:
		return floatOrEmpty(rec.EndLng)
	case domain.ColDurationMinutes:
		return floatOrEmpty(rec.DurationMinutes)
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
