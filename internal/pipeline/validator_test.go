package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripflow/internal/config"
	"tripflow/pkg/contracts/domain"
)

func testBounds() config.CleaningConfig {
	return config.Default().Cleaning
}

func fptr(f float64) *float64 { return &f }

func sptr(s string) *string { return &s }

func tripAt(id string, start, end time.Time) domain.TripRecord {
	return domain.TripRecord{
		RideID:       id,
		StartedAt:    start,
		EndedAt:      end,
		MemberCasual: "member",
	}
}

func TestValidator_Validate_EmptyDataset(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	report := v.Validate(domain.NewDataset(nil))

	require.True(t, report.HasIssues())
	assert.Contains(t, report.Issues, "dataset is empty")
	assert.Equal(t, 0, report.TotalRows)
}

func TestValidator_Validate_MissingRequiredColumns(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	ds := domain.NewDataset(
		[]domain.TripRecord{{RideID: "A1"}},
		domain.ColRideID,
	)

	report := v.Validate(ds)

	require.True(t, report.HasIssues())
	assert.Contains(t, report.Issues[0], "missing required columns")
	assert.Contains(t, report.Issues[0], "started_at")
	assert.Contains(t, report.Issues[0], "member_casual")
}

func TestValidator_Validate_HealthyDataset(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	start := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	ds := domain.NewDataset(
		[]domain.TripRecord{
			tripAt("A1", start, start.Add(20*time.Minute)),
			tripAt("A2", start, start.Add(10*time.Minute)),
		},
		domain.ColRideID, domain.ColStartedAt, domain.ColEndedAt, domain.ColMemberCasual,
	)

	report := v.Validate(ds)

	assert.False(t, report.HasIssues())
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.NullCounts)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 4, report.TotalColumns)
}

func TestValidator_Validate_NullCounts(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	start := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	records := []domain.TripRecord{
		tripAt("A1", start, start.Add(20*time.Minute)),
		tripAt("A2", start, start.Add(20*time.Minute)),
		tripAt("A3", start, start.Add(20*time.Minute)),
		tripAt("A4", start, start.Add(20*time.Minute)),
	}
	records[0].StartStationName = sptr("Clark St")
	// Remaining three rows leave the station name null.

	ds := domain.NewDataset(records,
		domain.ColRideID, domain.ColStartedAt, domain.ColEndedAt,
		domain.ColMemberCasual, domain.ColStartStationName,
	)

	report := v.Validate(ds)

	summary, ok := report.NullCounts[domain.ColStartStationName]
	require.True(t, ok)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 75.0, summary.Percentage, 1e-9)
}

func TestValidator_Validate_Warnings(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	start := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	records := []domain.TripRecord{
		tripAt("A1", start, start.Add(20*time.Minute)),
		tripAt("A1", start, start.Add(30*time.Minute)), // duplicate ride_id
		tripAt("A2", start, start.Add(-5*time.Minute)), // negative duration
		tripAt("A3", start, start),                     // zero duration
	}
	records[0].StartLat = fptr(41.9)
	records[1].StartLat = fptr(45.0) // north of the service area
	records[2].StartLat = fptr(41.8)
	records[3].StartLat = fptr(41.8)

	ds := domain.NewDataset(records,
		domain.ColRideID, domain.ColStartedAt, domain.ColEndedAt,
		domain.ColMemberCasual, domain.ColStartLat,
	)

	report := v.Validate(ds)

	assert.False(t, report.HasIssues())
	require.Len(t, report.Warnings, 3)
	assert.Contains(t, report.Warnings, "duplicate ride_id values: 1")
	assert.Contains(t, report.Warnings, "trips with non-positive duration: 2")
	assert.Contains(t, report.Warnings, "coordinates outside service area in start_lat: 1")
}

func TestValidator_Validate_NullCoordinatesNotOutOfBounds(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	start := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	rec := tripAt("A1", start, start.Add(20*time.Minute))
	// StartLat stays nil: a null coordinate is a null, not a bounds breach.

	ds := domain.NewDataset([]domain.TripRecord{rec},
		domain.ColRideID, domain.ColStartedAt, domain.ColEndedAt,
		domain.ColMemberCasual, domain.ColStartLat,
	)

	report := v.Validate(ds)

	for _, w := range report.Warnings {
		assert.NotContains(t, w, "outside service area")
	}
	_, hasNulls := report.NullCounts[domain.ColStartLat]
	assert.True(t, hasNulls)
}

func TestValidator_Validate_DoesNotMutateDataset(t *testing.T) {
	v := NewValidator(testBounds(), testLogger())

	start := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	ds := domain.NewDataset(
		[]domain.TripRecord{tripAt("A1", start, start.Add(20*time.Minute))},
		domain.ColRideID, domain.ColStartedAt, domain.ColEndedAt, domain.ColMemberCasual,
	)
	before := ds.Records[0]

	v.Validate(ds)

	assert.Equal(t, before, ds.Records[0])
	assert.Equal(t, 1, ds.Len())
}
