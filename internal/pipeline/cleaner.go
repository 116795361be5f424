package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"tripflow/internal/config"
	"tripflow/pkg/contracts/domain"
)

// Cleaner applies the fixed cleaning pipeline to a dataset. Stages run
// unconditionally in order and each one degrades to a no-op when its
// input columns are unbound; only the stage list itself is fixed. Every
// stage is idempotent, so cleaning an already-clean dataset is a fixed
// point.
type Cleaner struct {
	bounds config.CleaningConfig
	logger *slog.Logger
}

// NewCleaner creates a cleaner with the given bounds.
func NewCleaner(bounds config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{bounds: bounds, logger: logger}
}

type stage struct {
	name  string
	apply func(*domain.Dataset) *domain.Dataset
}

// Clean runs all cleaning stages and returns the cleaned dataset plus a
// report. The input dataset is not modified.
func (c *Cleaner) Clean(ds *domain.Dataset) (*domain.Dataset, domain.CleaningReport) {
	original := ds.Len()
	c.logger.Info("starting dataset cleaning", slog.Int("rows", original))

	// Work on a copy; standardize and fill stages rewrite fields.
	records := make([]domain.TripRecord, len(ds.Records))
	copy(records, ds.Records)
	current := ds.WithRecords(records)

	stages := []stage{
		{"deduplicate", c.deduplicate},
		{"timestamps", c.filterTimestamps},
		{"geographic", c.filterGeographic},
		{"duration", c.filterDuration},
		{"standardize", c.standardizeTypes},
		{"fill_stations", c.fillMissingStations},
	}

	report := domain.CleaningReport{
		RunID:        uuid.NewString(),
		OriginalRows: original,
	}

	for _, s := range stages {
		before := current.Len()
		current = s.apply(current)
		removed := before - current.Len()
		report.Stages = append(report.Stages, domain.StageRemoval{Stage: s.name, Removed: removed})
		if removed > 0 {
			c.logger.Info("cleaning stage removed rows",
				slog.String("stage", s.name),
				slog.Int("removed", removed))
		}
	}

	report.CleanedRows = current.Len()
	report.RemovedRows = original - current.Len()
	if original > 0 {
		report.RemovalPercentage = float64(report.RemovedRows) / float64(original) * 100
		report.QualityScore = float64(report.CleanedRows) / float64(original) * 100
	} else {
		report.QualityScore = 100
	}

	c.logger.Info("cleaning finished",
		slog.String("run_id", report.RunID),
		slog.Int("original_rows", report.OriginalRows),
		slog.Int("cleaned_rows", report.CleanedRows),
		slog.Float64("quality_score", report.QualityScore))

	return current, report
}

// deduplicate drops exact full-row duplicates, then duplicates sharing a
// ride ID. Which representative of a duplicate group survives is not
// part of the contract; first occurrence is kept here.
func (c *Cleaner) deduplicate(ds *domain.Dataset) *domain.Dataset {
	seen := make(map[string]bool, ds.Len())
	kept := make([]domain.TripRecord, 0, ds.Len())
	for i := range ds.Records {
		key := recordKey(&ds.Records[i])
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, ds.Records[i])
	}

	if ds.Has(domain.ColRideID) {
		seenID := make(map[string]bool, len(kept))
		byID := kept[:0]
		for i := range kept {
			id := kept[i].RideID
			if id != "" {
				if seenID[id] {
					continue
				}
				seenID[id] = true
			}
			byID = append(byID, kept[i])
		}
		kept = byID
	}

	return ds.WithRecords(kept)
}

// filterTimestamps drops rows whose end does not strictly follow their
// start. Rows with unparseable timestamps are dropped too: a null on
// either side of the comparison cannot satisfy it.
func (c *Cleaner) filterTimestamps(ds *domain.Dataset) *domain.Dataset {
	if !ds.Has(domain.ColStartedAt) || !ds.Has(domain.ColEndedAt) {
		return ds
	}
	kept := make([]domain.TripRecord, 0, ds.Len())
	for i := range ds.Records {
		rec := &ds.Records[i]
		if rec.HasTimestamps() && rec.EndedAt.After(rec.StartedAt) {
			kept = append(kept, ds.Records[i])
		}
	}
	return ds.WithRecords(kept)
}

// filterGeographic keeps rows whose bound coordinate columns are all
// present and inside the service-area bounding box.
func (c *Cleaner) filterGeographic(ds *domain.Dataset) *domain.Dataset {
	var coordCols []domain.Column
	for col := range domain.CoordinateColumns {
		if ds.Has(col) {
			coordCols = append(coordCols, col)
		}
	}
	if len(coordCols) == 0 {
		return ds
	}

	kept := make([]domain.TripRecord, 0, ds.Len())
	for i := range ds.Records {
		rec := &ds.Records[i]
		ok := true
		for _, col := range coordCols {
			val := coordinate(rec, col)
			if val == nil || !c.inBounds(col, *val) {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, ds.Records[i])
		}
	}
	return ds.WithRecords(kept)
}

func (c *Cleaner) inBounds(col domain.Column, v float64) bool {
	if domain.CoordinateColumns[col] {
		return v >= c.bounds.LatMin && v <= c.bounds.LatMax
	}
	return v >= c.bounds.LngMin && v <= c.bounds.LngMax
}

// filterDuration keeps rows with a plausible trip duration. When the
// dataset has no duration column but both timestamps are bound, the
// duration is derived and the column becomes part of the schema.
func (c *Cleaner) filterDuration(ds *domain.Dataset) *domain.Dataset {
	hasDuration := ds.Has(domain.ColDurationMinutes)
	canDerive := ds.Has(domain.ColStartedAt) && ds.Has(domain.ColEndedAt)
	if !hasDuration && !canDerive {
		return ds
	}

	out := ds
	if !hasDuration {
		records := make([]domain.TripRecord, len(ds.Records))
		copy(records, ds.Records)
		for i := range records {
			if records[i].HasTimestamps() {
				minutes := records[i].EndedAt.Sub(records[i].StartedAt).Minutes()
				records[i].DurationMinutes = &minutes
			}
		}
		columns := make(map[domain.Column]bool, len(ds.Columns)+1)
		for col := range ds.Columns {
			columns[col] = true
		}
		columns[domain.ColDurationMinutes] = true
		out = &domain.Dataset{Records: records, Columns: columns}
	}

	kept := make([]domain.TripRecord, 0, out.Len())
	for i := range out.Records {
		d := out.Records[i].DurationMinutes
		if d != nil && *d >= c.bounds.DurationMin && *d <= c.bounds.DurationMax {
			kept = append(kept, out.Records[i])
		}
	}
	return out.WithRecords(kept)
}

// standardizeTypes lowercases the user tier and rideable type fields.
// Station IDs are already strings in the canonical shape.
func (c *Cleaner) standardizeTypes(ds *domain.Dataset) *domain.Dataset {
	for i := range ds.Records {
		if ds.Has(domain.ColMemberCasual) {
			ds.Records[i].MemberCasual = strings.ToLower(ds.Records[i].MemberCasual)
		}
		if ds.Has(domain.ColRideableType) {
			ds.Records[i].RideableType = strings.ToLower(ds.Records[i].RideableType)
		}
	}
	return ds
}

// fillMissingStations replaces null station names and IDs with the
// documented sentinels.
func (c *Cleaner) fillMissingStations(ds *domain.Dataset) *domain.Dataset {
	for i := range ds.Records {
		rec := &ds.Records[i]
		if ds.Has(domain.ColStartStationName) && rec.StartStationName == nil {
			rec.StartStationName = ptr(domain.MissingStationName)
		}
		if ds.Has(domain.ColEndStationName) && rec.EndStationName == nil {
			rec.EndStationName = ptr(domain.MissingStationName)
		}
		if ds.Has(domain.ColStartStationID) && rec.StartStationID == nil {
			rec.StartStationID = ptr(domain.MissingStationID)
		}
		if ds.Has(domain.ColEndStationID) && rec.EndStationID == nil {
			rec.EndStationID = ptr(domain.MissingStationID)
		}
	}
	return ds
}

func ptr(s string) *string {
	return &s
}

// recordKey builds a value-based identity for full-row deduplication.
func recordKey(rec *domain.TripRecord) string {
	var b strings.Builder
	b.WriteString(rec.RideID)
	b.WriteByte('|')
	b.WriteString(rec.StartedAt.Format("2006-01-02T15:04:05"))
	b.WriteByte('|')
	b.WriteString(rec.EndedAt.Format("2006-01-02T15:04:05"))
	b.WriteByte('|')
	b.WriteString(rec.RideableType)
	b.WriteByte('|')
	b.WriteString(rec.MemberCasual)
	for _, s := range []*string{rec.StartStationName, rec.StartStationID, rec.EndStationName, rec.EndStationID} {
		b.WriteByte('|')
		if s != nil {
			b.WriteString(*s)
		} else {
			b.WriteString("\x00")
		}
	}
	for _, f := range []*float64{rec.StartLat, rec.StartLng, rec.EndLat, rec.EndLng, rec.DurationMinutes} {
		b.WriteByte('|')
		if f != nil {
			fmt.Fprintf(&b, "%v", *f)
		} else {
			b.WriteString("\x00")
		}
	}
	return b.String()
}
