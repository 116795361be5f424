package pipeline

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	pipeerrors "tripflow/internal/errors"
	"tripflow/pkg/contracts/domain"
)

// ColumnRoles declares which raw column serves each canonical role for
// one dataset variant. An empty name means the variant does not carry
// that column. This replaces substring sniffing of column names: the
// mapping is declared once and applied once, at the pipeline boundary.
type ColumnRoles struct {
	RideID           string `yaml:"ride_id"`
	StartedAt        string `yaml:"started_at"`
	EndedAt          string `yaml:"ended_at"`
	RideableType     string `yaml:"rideable_type"`
	MemberCasual     string `yaml:"member_casual"`
	StartStationName string `yaml:"start_station_name"`
	StartStationID   string `yaml:"start_station_id"`
	EndStationName   string `yaml:"end_station_name"`
	EndStationID     string `yaml:"end_station_id"`
	StartLat         string `yaml:"start_lat"`
	StartLng         string `yaml:"start_lng"`
	EndLat           string `yaml:"end_lat"`
	EndLng           string `yaml:"end_lng"`
	DurationMinutes  string `yaml:"duration_minutes"`
}

// DefaultColumnRoles returns the role mapping for Divvy trip exports,
// whose headers already match the canonical column names.
func DefaultColumnRoles() ColumnRoles {
	return ColumnRoles{
		RideID:           "ride_id",
		StartedAt:        "started_at",
		EndedAt:          "ended_at",
		RideableType:     "rideable_type",
		MemberCasual:     "member_casual",
		StartStationName: "start_station_name",
		StartStationID:   "start_station_id",
		EndStationName:   "end_station_name",
		EndStationID:     "end_station_id",
		StartLat:         "start_lat",
		StartLng:         "start_lng",
		EndLat:           "end_lat",
		EndLng:           "end_lng",
	}
}

func (r ColumnRoles) byColumn() map[domain.Column]string {
	return map[domain.Column]string{
		domain.ColRideID:           r.RideID,
		domain.ColStartedAt:        r.StartedAt,
		domain.ColEndedAt:          r.EndedAt,
		domain.ColRideableType:     r.RideableType,
		domain.ColMemberCasual:     r.MemberCasual,
		domain.ColStartStationName: r.StartStationName,
		domain.ColStartStationID:   r.StartStationID,
		domain.ColEndStationName:   r.EndStationName,
		domain.ColEndStationID:     r.EndStationID,
		domain.ColStartLat:         r.StartLat,
		domain.ColStartLng:         r.StartLng,
		domain.ColEndLat:           r.EndLat,
		domain.ColEndLng:           r.EndLng,
		domain.ColDurationMinutes:  r.DurationMinutes,
	}
}

// timestampLayouts are tried in order when coercing raw timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Mapper converts raw tabular rows into the canonical dataset shape.
type Mapper struct {
	roles  ColumnRoles
	logger *slog.Logger
}

// NewMapper creates a mapper for one dataset variant.
func NewMapper(roles ColumnRoles, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{roles: roles, logger: logger}
}

// Map applies the role mapping to a raw header plus rows. Columns whose
// declared raw name is absent from the header stay unbound. Individual
// values that fail to parse become nulls and are reported as warnings;
// they never abort the mapping.
func (m *Mapper) Map(header []string, rows [][]string) *domain.Dataset {
	pos := make(map[domain.Column]int)
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	bound := make(map[domain.Column]bool)
	for col, raw := range m.roles.byColumn() {
		if raw == "" {
			continue
		}
		if i, ok := index[strings.ToLower(raw)]; ok {
			pos[col] = i
			bound[col] = true
		}
	}

	parseFailures := make(map[domain.Column]int)
	records := make([]domain.TripRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.TripRecord{
			RideID:           m.stringAt(row, pos, domain.ColRideID),
			RideableType:     m.stringAt(row, pos, domain.ColRideableType),
			MemberCasual:     m.stringAt(row, pos, domain.ColMemberCasual),
			StartedAt:        m.timeAt(row, pos, domain.ColStartedAt, parseFailures),
			EndedAt:          m.timeAt(row, pos, domain.ColEndedAt, parseFailures),
			StartStationName: m.stringPtrAt(row, pos, domain.ColStartStationName),
			StartStationID:   m.stringPtrAt(row, pos, domain.ColStartStationID),
			EndStationName:   m.stringPtrAt(row, pos, domain.ColEndStationName),
			EndStationID:     m.stringPtrAt(row, pos, domain.ColEndStationID),
			StartLat:         m.floatAt(row, pos, domain.ColStartLat, parseFailures),
			StartLng:         m.floatAt(row, pos, domain.ColStartLng, parseFailures),
			EndLat:           m.floatAt(row, pos, domain.ColEndLat, parseFailures),
			EndLng:           m.floatAt(row, pos, domain.ColEndLng, parseFailures),
			DurationMinutes:  m.floatAt(row, pos, domain.ColDurationMinutes, parseFailures),
		}
		records = append(records, rec)
	}

	for col, n := range parseFailures {
		m.logger.Warn("values could not be coerced and were nulled",
			slog.String("column", string(col)),
			slog.Int("count", n))
	}

	return &domain.Dataset{Records: records, Columns: bound}
}

func cellAt(row []string, pos map[domain.Column]int, col domain.Column) (string, bool) {
	i, ok := pos[col]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func (m *Mapper) stringAt(row []string, pos map[domain.Column]int, col domain.Column) string {
	v, _ := cellAt(row, pos, col)
	return v
}

func (m *Mapper) stringPtrAt(row []string, pos map[domain.Column]int, col domain.Column) *string {
	v, ok := cellAt(row, pos, col)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (m *Mapper) timeAt(row []string, pos map[domain.Column]int, col domain.Column, failures map[domain.Column]int) time.Time {
	v, ok := cellAt(row, pos, col)
	if !ok || v == "" {
		return time.Time{}
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t
		}
		lastErr = err
	}
	failures[col]++
	m.logger.Debug("timestamp coercion failed",
		slog.String("error", pipeerrors.NewParse(col, v, lastErr).Error()))
	return time.Time{}
}

func (m *Mapper) floatAt(row []string, pos map[domain.Column]int, col domain.Column, failures map[domain.Column]int) *float64 {
	v, ok := cellAt(row, pos, col)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		failures[col]++
		m.logger.Debug("numeric coercion failed",
			slog.String("error", pipeerrors.NewParse(col, v, err).Error()))
		return nil
	}
	return &f
}
