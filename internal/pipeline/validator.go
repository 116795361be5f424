package pipeline

import (
	"fmt"
	"log/slog"

	"tripflow/internal/config"
	"tripflow/pkg/contracts/domain"
)

// requiredColumns must be bound for downstream stages to make sense.
var requiredColumns = []domain.Column{
	domain.ColStartedAt,
	domain.ColEndedAt,
	domain.ColMemberCasual,
}

// Validator checks dataset structural and semantic health without
// mutating it. Data-quality problems surface in the report, never as
// errors.
type Validator struct {
	bounds config.CleaningConfig
	logger *slog.Logger
}

// NewValidator creates a validator using the given coordinate and
// duration bounds.
func NewValidator(bounds config.CleaningConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{bounds: bounds, logger: logger}
}

// Validate produces a fresh validation report for the dataset.
func (v *Validator) Validate(ds *domain.Dataset) domain.ValidationReport {
	report := domain.ValidationReport{
		TotalRows:    ds.Len(),
		TotalColumns: len(ds.BoundColumns()),
		NullCounts:   make(map[domain.Column]domain.NullSummary),
	}

	if ds.Len() == 0 {
		report.Issues = append(report.Issues, "dataset is empty")
		return report
	}

	if missing := missingRequired(ds); len(missing) > 0 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("missing required columns: %v", missing))
	}

	v.countNulls(ds, &report)
	v.checkDuplicates(ds, &report)
	v.checkTimestampOrder(ds, &report)
	v.checkCoordinates(ds, &report)

	v.logger.Info("validation finished",
		slog.Int("rows", report.TotalRows),
		slog.Int("issues", len(report.Issues)),
		slog.Int("warnings", len(report.Warnings)))

	return report
}

func missingRequired(ds *domain.Dataset) []domain.Column {
	var missing []domain.Column
	for _, col := range requiredColumns {
		if !ds.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func (v *Validator) countNulls(ds *domain.Dataset, report *domain.ValidationReport) {
	total := ds.Len()
	for _, col := range ds.BoundColumns() {
		nulls := 0
		for i := range ds.Records {
			if isNull(&ds.Records[i], col) {
				nulls++
			}
		}
		if nulls > 0 {
			report.NullCounts[col] = domain.NullSummary{
				Count:      nulls,
				Percentage: float64(nulls) / float64(total) * 100,
			}
		}
	}
}

func (v *Validator) checkDuplicates(ds *domain.Dataset, report *domain.ValidationReport) {
	if !ds.Has(domain.ColRideID) {
		return
	}
	seen := make(map[string]bool, ds.Len())
	for i := range ds.Records {
		seen[ds.Records[i].RideID] = true
	}
	if dups := ds.Len() - len(seen); dups > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("duplicate ride_id values: %d", dups))
	}
}

func (v *Validator) checkTimestampOrder(ds *domain.Dataset, report *domain.ValidationReport) {
	if !ds.Has(domain.ColStartedAt) || !ds.Has(domain.ColEndedAt) {
		return
	}
	negative := 0
	for i := range ds.Records {
		rec := &ds.Records[i]
		if rec.HasTimestamps() && !rec.EndedAt.After(rec.StartedAt) {
			negative++
		}
	}
	if negative > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("trips with non-positive duration: %d", negative))
	}
}

func (v *Validator) checkCoordinates(ds *domain.Dataset, report *domain.ValidationReport) {
	for col, isLat := range domain.CoordinateColumns {
		if !ds.Has(col) {
			continue
		}
		min, max := v.bounds.LngMin, v.bounds.LngMax
		if isLat {
			min, max = v.bounds.LatMin, v.bounds.LatMax
		}
		outOfBounds := 0
		for i := range ds.Records {
			val := coordinate(&ds.Records[i], col)
			if val != nil && (*val < min || *val > max) {
				outOfBounds++
			}
		}
		if outOfBounds > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("coordinates outside service area in %s: %d", col, outOfBounds))
		}
	}
}

// isNull reports whether the record's value for the column is missing.
func isNull(rec *domain.TripRecord, col domain.Column) bool {
	switch col {
	case domain.ColRideID:
		return rec.RideID == ""
	case domain.ColStartedAt:
		return rec.StartedAt.IsZero()
	case domain.ColEndedAt:
		return rec.EndedAt.IsZero()
	case domain.ColRideableType:
		return rec.RideableType == ""
	case domain.ColMemberCasual:
		return rec.MemberCasual == ""
	case domain.ColStartStationName:
		return rec.StartStationName == nil
	case domain.ColStartStationID:
		return rec.StartStationID == nil
	case domain.ColEndStationName:
		return rec.EndStationName == nil
	case domain.ColEndStationID:
		return rec.EndStationID == nil
	case domain.ColStartLat:
		return rec.StartLat == nil
	case domain.ColStartLng:
		return rec.StartLng == nil
	case domain.ColEndLat:
		return rec.EndLat == nil
	case domain.ColEndLng:
		return rec.EndLng == nil
	case domain.ColDurationMinutes:
		return rec.DurationMinutes == nil
	}
	return false
}

func coordinate(rec *domain.TripRecord, col domain.Column) *float64 {
	switch col {
	case domain.ColStartLat:
		return rec.StartLat
	case domain.ColStartLng:
		return rec.StartLng
	case domain.ColEndLat:
		return rec.EndLat
	case domain.ColEndLng:
		return rec.EndLng
	}
	return nil
}
