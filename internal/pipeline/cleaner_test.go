package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripflow/pkg/contracts/domain"
)

func goodTrip(id string) domain.TripRecord {
	start := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	return domain.TripRecord{
		RideID:       id,
		StartedAt:    start,
		EndedAt:      start.Add(20 * time.Minute),
		RideableType: "classic_bike",
		MemberCasual: "member",
		StartLat:     fptr(41.9),
		StartLng:     fptr(-87.6),
	}
}

func fullColumns() []domain.Column {
	return []domain.Column{
		domain.ColRideID, domain.ColStartedAt, domain.ColEndedAt,
		domain.ColRideableType, domain.ColMemberCasual,
		domain.ColStartLat, domain.ColStartLng,
	}
}

// TestCleaner_Clean_QualityScore runs the full pipeline over a dataset
// engineered so each filtering stage removes a known number of rows:
// 100 in, 85 out, quality score 85.
func TestCleaner_Clean_QualityScore(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	var records []domain.TripRecord
	for i := 0; i < 85; i++ {
		records = append(records, goodTrip(fmt.Sprintf("r%03d", i)))
	}
	// 5 exact copies of the first row.
	for i := 0; i < 5; i++ {
		records = append(records, goodTrip("r000"))
	}
	// 5 rows whose end precedes their start.
	for i := 0; i < 5; i++ {
		rec := goodTrip(fmt.Sprintf("ts%d", i))
		rec.EndedAt = rec.StartedAt.Add(-10 * time.Minute)
		records = append(records, rec)
	}
	// 3 rows outside the service area.
	for i := 0; i < 3; i++ {
		rec := goodTrip(fmt.Sprintf("geo%d", i))
		rec.StartLat = fptr(45.0)
		records = append(records, rec)
	}
	// 2 rows shorter than a minute.
	for i := 0; i < 2; i++ {
		rec := goodTrip(fmt.Sprintf("dur%d", i))
		rec.EndedAt = rec.StartedAt.Add(30 * time.Second)
		records = append(records, rec)
	}
	require.Len(t, records, 100)

	ds := domain.NewDataset(records, fullColumns()...)
	cleaned, report := c.Clean(ds)

	assert.Equal(t, 100, report.OriginalRows)
	assert.Equal(t, 85, report.CleanedRows)
	assert.Equal(t, 15, report.RemovedRows)
	assert.InDelta(t, 85.0, report.QualityScore, 1e-9)
	assert.InDelta(t, 15.0, report.RemovalPercentage, 1e-9)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 85, cleaned.Len())

	byStage := make(map[string]int, len(report.Stages))
	for _, s := range report.Stages {
		byStage[s.Stage] = s.Removed
	}
	assert.Equal(t, 5, byStage["deduplicate"])
	assert.Equal(t, 5, byStage["timestamps"])
	assert.Equal(t, 3, byStage["geographic"])
	assert.Equal(t, 2, byStage["duration"])
	assert.Equal(t, 0, byStage["standardize"])
	assert.Equal(t, 0, byStage["fill_stations"])

	// Input dataset is untouched.
	assert.Equal(t, 100, ds.Len())
}

func TestCleaner_Clean_Idempotent(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	records := []domain.TripRecord{
		goodTrip("r1"), goodTrip("r1"), goodTrip("r2"),
	}
	ds := domain.NewDataset(records, fullColumns()...)

	once, first := c.Clean(ds)
	twice, second := c.Clean(once)

	assert.Equal(t, 2, first.CleanedRows)
	assert.Equal(t, 0, second.RemovedRows)
	assert.InDelta(t, 100.0, second.QualityScore, 1e-9)
	assert.Equal(t, once.Records, twice.Records)
}

func TestCleaner_Deduplicate_ByRideID(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	// Same ride ID, different payload: the ID dedup pass catches it.
	a := goodTrip("r1")
	b := goodTrip("r1")
	b.EndedAt = b.StartedAt.Add(30 * time.Minute)
	ds := domain.NewDataset([]domain.TripRecord{a, b}, fullColumns()...)

	cleaned, _ := c.Clean(ds)

	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, a.EndedAt, cleaned.Records[0].EndedAt)
}

func TestCleaner_Deduplicate_EmptyRideIDsAreNotDuplicates(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	a := goodTrip("")
	b := goodTrip("")
	b.EndedAt = b.StartedAt.Add(30 * time.Minute)
	ds := domain.NewDataset([]domain.TripRecord{a, b}, fullColumns()...)

	cleaned, _ := c.Clean(ds)

	assert.Equal(t, 2, cleaned.Len())
}

func TestCleaner_FilterTimestamps_DropsNulls(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	withNull := goodTrip("r2")
	withNull.EndedAt = time.Time{}
	ds := domain.NewDataset(
		[]domain.TripRecord{goodTrip("r1"), withNull},
		fullColumns()...,
	)

	cleaned, _ := c.Clean(ds)

	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "r1", cleaned.Records[0].RideID)
}

func TestCleaner_FilterDuration_DerivesColumn(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	long := goodTrip("r2")
	long.EndedAt = long.StartedAt.Add(25 * time.Hour) // past the 24h cap
	ds := domain.NewDataset(
		[]domain.TripRecord{goodTrip("r1"), long},
		fullColumns()...,
	)
	require.False(t, ds.Has(domain.ColDurationMinutes))

	cleaned, _ := c.Clean(ds)

	require.Equal(t, 1, cleaned.Len())
	assert.True(t, cleaned.Has(domain.ColDurationMinutes))
	require.NotNil(t, cleaned.Records[0].DurationMinutes)
	assert.InDelta(t, 20.0, *cleaned.Records[0].DurationMinutes, 1e-9)
}

func TestCleaner_FilterDuration_ExplicitColumn(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	// Only an explicit duration column, no timestamps.
	records := []domain.TripRecord{
		{RideID: "ok", DurationMinutes: fptr(30)},
		{RideID: "too_short", DurationMinutes: fptr(0.5)},
		{RideID: "too_long", DurationMinutes: fptr(2000)},
		{RideID: "null_duration"},
	}
	ds := domain.NewDataset(records, domain.ColRideID, domain.ColDurationMinutes)

	cleaned, _ := c.Clean(ds)

	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "ok", cleaned.Records[0].RideID)
}

func TestCleaner_StandardizeAndFill(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	rec := goodTrip("r1")
	rec.MemberCasual = "Member"
	rec.RideableType = "CLASSIC_BIKE"
	rec.EndStationName = sptr("Wabash Ave")

	cols := append(fullColumns(),
		domain.ColStartStationName, domain.ColStartStationID,
		domain.ColEndStationName, domain.ColEndStationID,
	)
	ds := domain.NewDataset([]domain.TripRecord{rec}, cols...)

	cleaned, _ := c.Clean(ds)

	require.Equal(t, 1, cleaned.Len())
	got := cleaned.Records[0]
	assert.Equal(t, "member", got.MemberCasual)
	assert.Equal(t, "classic_bike", got.RideableType)
	require.NotNil(t, got.StartStationName)
	assert.Equal(t, domain.MissingStationName, *got.StartStationName)
	require.NotNil(t, got.StartStationID)
	assert.Equal(t, domain.MissingStationID, *got.StartStationID)
	require.NotNil(t, got.EndStationName)
	assert.Equal(t, "Wabash Ave", *got.EndStationName)
	require.NotNil(t, got.EndStationID)
	assert.Equal(t, domain.MissingStationID, *got.EndStationID)
}

func TestCleaner_UnboundStagesAreNoOps(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	// Only a ride ID column: nothing to filter on, everything survives.
	records := []domain.TripRecord{{RideID: "a"}, {RideID: "b"}}
	ds := domain.NewDataset(records, domain.ColRideID)

	cleaned, report := c.Clean(ds)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 0, report.RemovedRows)
	assert.InDelta(t, 100.0, report.QualityScore, 1e-9)
}

func TestCleaner_Clean_EmptyDataset(t *testing.T) {
	c := NewCleaner(testBounds(), testLogger())

	cleaned, report := c.Clean(domain.NewDataset(nil, fullColumns()...))

	assert.Equal(t, 0, cleaned.Len())
	assert.Equal(t, 0, report.RemovedRows)
	assert.InDelta(t, 100.0, report.QualityScore, 1e-9)
}
