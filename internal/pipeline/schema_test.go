package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripflow/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapper_Map(t *testing.T) {
	mapper := NewMapper(DefaultColumnRoles(), testLogger())

	header := []string{"ride_id", "started_at", "ended_at", "member_casual", "start_lat"}
	rows := [][]string{
		{"A1", "2024-06-15 08:00:00", "2024-06-15 08:20:00", "member", "41.9"},
		{"A2", "2024-06-15 09:00:00", "2024-06-15 09:05:00", "casual", "42.1"},
	}

	ds := mapper.Map(header, rows)

	require.Equal(t, 2, ds.Len())
	assert.True(t, ds.Has(domain.ColRideID))
	assert.True(t, ds.Has(domain.ColStartedAt))
	assert.True(t, ds.Has(domain.ColEndedAt))
	assert.True(t, ds.Has(domain.ColMemberCasual))
	assert.True(t, ds.Has(domain.ColStartLat))
	assert.False(t, ds.Has(domain.ColEndLat))
	assert.False(t, ds.Has(domain.ColDurationMinutes))

	rec := ds.Records[0]
	assert.Equal(t, "A1", rec.RideID)
	assert.Equal(t, time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC), rec.StartedAt)
	assert.Equal(t, "member", rec.MemberCasual)
	require.NotNil(t, rec.StartLat)
	assert.Equal(t, 41.9, *rec.StartLat)
}

func TestMapper_Map_HeaderMatching(t *testing.T) {
	mapper := NewMapper(DefaultColumnRoles(), testLogger())

	// Headers match case-insensitively and ignore surrounding whitespace.
	header := []string{" Ride_ID ", "STARTED_AT", "unrelated_column"}
	rows := [][]string{{"B1", "2024-01-01 12:00:00", "noise"}}

	ds := mapper.Map(header, rows)

	require.Equal(t, 1, ds.Len())
	assert.True(t, ds.Has(domain.ColRideID))
	assert.True(t, ds.Has(domain.ColStartedAt))
	assert.Equal(t, "B1", ds.Records[0].RideID)
	assert.False(t, ds.Records[0].StartedAt.IsZero())
}

func TestMapper_Map_ParseFailuresBecomeNulls(t *testing.T) {
	mapper := NewMapper(DefaultColumnRoles(), testLogger())

	header := []string{"ride_id", "started_at", "start_lat"}
	rows := [][]string{
		{"C1", "not a timestamp", "not a number"},
		{"C2", "2024-03-01 10:00:00", ""},
	}

	ds := mapper.Map(header, rows)

	require.Equal(t, 2, ds.Len())
	assert.True(t, ds.Records[0].StartedAt.IsZero())
	assert.Nil(t, ds.Records[0].StartLat)
	assert.False(t, ds.Records[1].StartedAt.IsZero())
	assert.Nil(t, ds.Records[1].StartLat)
}

func TestMapper_Map_ShortRows(t *testing.T) {
	mapper := NewMapper(DefaultColumnRoles(), testLogger())

	header := []string{"ride_id", "started_at", "ended_at"}
	rows := [][]string{{"D1"}}

	ds := mapper.Map(header, rows)

	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "D1", ds.Records[0].RideID)
	assert.True(t, ds.Records[0].StartedAt.IsZero())
	assert.True(t, ds.Records[0].EndedAt.IsZero())
}

func TestMapper_Map_TimestampLayouts(t *testing.T) {
	mapper := NewMapper(DefaultColumnRoles(), testLogger())

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"space separated", "2024-06-15 08:00:00", time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)},
		{"iso 8601", "2024-06-15T08:00:00Z", time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)},
		{"no zone", "2024-06-15T08:00:00", time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)},
		{"no seconds", "2024-06-15 08:00", time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := mapper.Map([]string{"started_at"}, [][]string{{tt.raw}})
			require.Equal(t, 1, ds.Len())
			assert.True(t, tt.want.Equal(ds.Records[0].StartedAt))
		})
	}
}

func TestMapper_Map_UnmappedRoleStaysUnbound(t *testing.T) {
	roles := DefaultColumnRoles()
	roles.StartStationName = "" // variant without station names
	mapper := NewMapper(roles, testLogger())

	header := []string{"ride_id", "start_station_name"}
	ds := mapper.Map(header, [][]string{{"E1", "Clark St"}})

	assert.False(t, ds.Has(domain.ColStartStationName))
	assert.Nil(t, ds.Records[0].StartStationName)
}
