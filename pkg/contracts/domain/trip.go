package domain

import (
	"time"
)

// TripRecord represents a single bike-share rental in canonical form.
// Raw files are mapped into this shape exactly once at the pipeline
// boundary; every downstream stage consumes TripRecord slices and never
// inspects raw column names again.
type TripRecord struct {
	RideID           string     `json:"ride_id" csv:"ride_id"`
	StartedAt        time.Time  `json:"started_at" csv:"started_at"`
	EndedAt          time.Time  `json:"ended_at" csv:"ended_at"`
	RideableType     string     `json:"rideable_type" csv:"rideable_type"`
	MemberCasual     string     `json:"member_casual" csv:"member_casual"`
	StartStationName *string    `json:"start_station_name" csv:"start_station_name"`
	StartStationID   *string    `json:"start_station_id" csv:"start_station_id"`
	EndStationName   *string    `json:"end_station_name" csv:"end_station_name"`
	EndStationID     *string    `json:"end_station_id" csv:"end_station_id"`
	StartLat         *float64   `json:"start_lat" csv:"start_lat"`
	StartLng         *float64   `json:"start_lng" csv:"start_lng"`
	EndLat           *float64   `json:"end_lat" csv:"end_lat"`
	EndLng           *float64   `json:"end_lng" csv:"end_lng"`
	DurationMinutes  *float64   `json:"duration_minutes" csv:"duration_minutes"`
}

// HasTimestamps reports whether both trip timestamps parsed successfully.
func (t *TripRecord) HasTimestamps() bool {
	return !t.StartedAt.IsZero() && !t.EndedAt.IsZero()
}

// Duration returns the trip duration in minutes. It prefers the explicit
// DurationMinutes field and falls back to the timestamp difference. The
// second return value is false when neither source is available.
func (t *TripRecord) Duration() (float64, bool) {
	if t.DurationMinutes != nil {
		return *t.DurationMinutes, true
	}
	if t.HasTimestamps() {
		return t.EndedAt.Sub(t.StartedAt).Minutes(), true
	}
	return 0, false
}

// UserTier identifies the rider's membership tier.
type UserTier string

const (
	TierMember UserTier = "member"
	TierCasual UserTier = "casual"
)

// BikeType identifies the normalized rideable type.
type BikeType string

const (
	BikeClassic  BikeType = "classic_bike"
	BikeElectric BikeType = "electric_bike"
)

// Sentinel values used when station information is missing. Dockless
// rides legitimately have no station, so these are fills, not errors.
const (
	MissingStationName = "Non-Station Parking"
	MissingStationID   = "unknown"
)

// Column identifies a canonical dataset column. Stages use the bound
// column set to decide whether a rule applies or degrades to a no-op.
type Column string

const (
	ColRideID           Column = "ride_id"
	ColStartedAt        Column = "started_at"
	ColEndedAt          Column = "ended_at"
	ColRideableType     Column = "rideable_type"
	ColMemberCasual     Column = "member_casual"
	ColStartStationName Column = "start_station_name"
	ColStartStationID   Column = "start_station_id"
	ColEndStationName   Column = "end_station_name"
	ColEndStationID     Column = "end_station_id"
	ColStartLat         Column = "start_lat"
	ColStartLng         Column = "start_lng"
	ColEndLat           Column = "end_lat"
	ColEndLng           Column = "end_lng"
	ColDurationMinutes  Column = "duration_minutes"
)

// AllColumns lists every canonical column in stable order. Reports and
// exports iterate this instead of ranging over maps.
var AllColumns = []Column{
	ColRideID, ColStartedAt, ColEndedAt, ColRideableType, ColMemberCasual,
	ColStartStationName, ColStartStationID, ColEndStationName, ColEndStationID,
	ColStartLat, ColStartLng, ColEndLat, ColEndLng, ColDurationMinutes,
}

// CoordinateColumns maps each coordinate column to whether it is a
// latitude (true) or longitude (false) column.
var CoordinateColumns = map[Column]bool{
	ColStartLat: true,
	ColStartLng: false,
	ColEndLat:   true,
	ColEndLng:   false,
}

// Dataset is the in-memory tabular dataset handle passed between
// pipeline stages. Columns records which canonical columns were bound
// during schema mapping; a stage whose inputs are unbound is a no-op.
type Dataset struct {
	Records []TripRecord
	Columns map[Column]bool
}

// NewDataset builds a dataset over records with the given bound columns.
func NewDataset(records []TripRecord, columns ...Column) *Dataset {
	bound := make(map[Column]bool, len(columns))
	for _, c := range columns {
		bound[c] = true
	}
	return &Dataset{Records: records, Columns: bound}
}

// Has reports whether the column was bound at mapping time.
func (d *Dataset) Has(c Column) bool {
	return d != nil && d.Columns[c]
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// BoundColumns returns the bound columns in canonical order.
func (d *Dataset) BoundColumns() []Column {
	var cols []Column
	for _, c := range AllColumns {
		if d.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// WithRecords returns a dataset over the given records that keeps the
// receiver's column bindings. Stages use it so filtering never changes
// the schema.
func (d *Dataset) WithRecords(records []TripRecord) *Dataset {
	return &Dataset{Records: records, Columns: d.Columns}
}
