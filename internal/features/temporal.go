package features

import (
	"log/slog"
	"math"
	"time"

	pipeerrors "tripflow/internal/errors"
	"tripflow/pkg/contracts/domain"
)

// Peak-hour windows, half-open: [start, end).
const (
	morningPeakStart = 7
	morningPeakEnd   = 9
	eveningPeakStart = 16
	eveningPeakEnd   = 18
)

// Duration category thresholds in minutes. The is_short_trip flag and
// the lower bound of the medium category both use 15 minutes; a trip of
// exactly 15 minutes is flagged short AND categorized short, while
// is_medium_trip starts strictly above 15. This boundary overlap is
// inherited behavior and kept on purpose.
const (
	veryShortMaxMinutes = 5
	shortMaxMinutes     = 15
	mediumMaxMinutes    = 45
	longMaxMinutes      = 120
)

// Duration category labels.
const (
	CategoryVeryShort = "very_short"
	CategoryShort     = "short"
	CategoryMedium    = "medium"
	CategoryLong      = "long"
	CategoryVeryLong  = "very_long"
)

// TripFeatures carries every derived temporal feature for one trip.
// Valid is false when the source timestamp was null; such rows carry
// zero values and should be skipped by consumers.
type TripFeatures struct {
	Valid bool `json:"valid"`

	// Calendar components.
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Day        int       `json:"day"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	Weekday    int       `json:"weekday"` // 1=Monday .. 7=Sunday
	DayOfYear  int       `json:"day_of_year"`
	WeekOfYear int       `json:"week_of_year"`
	Date       time.Time `json:"date"`
	Season     int       `json:"season"` // 1=Winter 2=Spring 3=Summer 4=Fall

	// Boolean flags.
	IsWeekend     bool `json:"is_weekend"`
	IsMorningPeak bool `json:"is_morning_peak"`
	IsEveningPeak bool `json:"is_evening_peak"`
	IsPeakHour    bool `json:"is_peak_hour"`
	IsHoliday     bool `json:"is_holiday"`

	// Duration features; populated only when requested.
	DurationMinutes  float64 `json:"duration_minutes"`
	DurationSeconds  float64 `json:"duration_seconds"`
	IsShortTrip      bool    `json:"is_short_trip"`
	IsMediumTrip     bool    `json:"is_medium_trip"`
	IsLongTrip       bool    `json:"is_long_trip"`
	IsVeryShortTrip  bool    `json:"is_very_short_trip"`
	DurationCategory string  `json:"duration_category"`

	// Cyclical encodings.
	HourSin      float64 `json:"hour_sin"`
	HourCos      float64 `json:"hour_cos"`
	WeekdaySin   float64 `json:"weekday_sin"`
	WeekdayCos   float64 `json:"weekday_cos"`
	MonthSin     float64 `json:"month_sin"`
	MonthCos     float64 `json:"month_cos"`
	DayOfYearSin float64 `json:"day_of_year_sin"`
	DayOfYearCos float64 `json:"day_of_year_cos"`

	// Interaction encodings.
	HourWeekday   int `json:"hour_weekday_interaction"`
	SeasonWeekend int `json:"season_weekend_interaction"`
	MonthHour     int `json:"month_hour_interaction"`
}

// Options selects which feature groups to derive and which timestamp
// columns to derive them from.
type Options struct {
	StartColumn         domain.Column
	EndColumn           domain.Column
	IncludeDuration     bool
	IncludeCyclical     bool
	IncludeInteractions bool
}

// DefaultOptions derives every feature group from started_at/ended_at.
func DefaultOptions() Options {
	return Options{
		StartColumn:         domain.ColStartedAt,
		EndColumn:           domain.ColEndedAt,
		IncludeDuration:     true,
		IncludeCyclical:     true,
		IncludeInteractions: true,
	}
}

// Extractor derives temporal features. It is stateless apart from the
// fixed holiday calendar built at construction.
type Extractor struct {
	holidays map[string]bool
	logger   *slog.Logger
}

// NewExtractor creates an extractor with the built-in holiday calendar.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{holidays: holidayCalendar(), logger: logger}
}

// holidayCalendar lists the major US holidays observed 2020-2025:
// New Year's Day, Independence Day, Thanksgiving, Christmas. Dates
// outside this table are never flagged, even if they are real holidays.
func holidayCalendar() map[string]bool {
	dates := []string{
		"2020-01-01", "2020-07-04", "2020-11-26", "2020-12-25",
		"2021-01-01", "2021-07-04", "2021-11-25", "2021-12-25",
		"2022-01-01", "2022-07-04", "2022-11-24", "2022-12-25",
		"2023-01-01", "2023-07-04", "2023-11-23", "2023-12-25",
		"2024-01-01", "2024-07-04", "2024-11-28", "2024-12-25",
		"2025-01-01", "2025-07-04", "2025-11-27", "2025-12-25",
	}
	cal := make(map[string]bool, len(dates))
	for _, d := range dates {
		cal[d] = true
	}
	return cal
}

// Extract derives features for every row of the dataset, aligned by
// index with ds.Records. It returns a StructuralError when the start
// column, or the end column with duration features requested, is not
// bound.
func (e *Extractor) Extract(ds *domain.Dataset, opts Options) ([]TripFeatures, error) {
	if opts.StartColumn == "" {
		opts.StartColumn = domain.ColStartedAt
	}
	if opts.EndColumn == "" {
		opts.EndColumn = domain.ColEndedAt
	}
	if !ds.Has(opts.StartColumn) {
		return nil, pipeerrors.NewStructural(opts.StartColumn)
	}
	if opts.IncludeDuration && !ds.Has(opts.EndColumn) {
		return nil, pipeerrors.NewStructural(opts.EndColumn)
	}

	out := make([]TripFeatures, len(ds.Records))
	for i := range ds.Records {
		rec := &ds.Records[i]
		start := timeColumn(rec, opts.StartColumn)
		if start.IsZero() {
			continue
		}
		f := e.timeFeatures(start)
		if opts.IncludeDuration {
			end := timeColumn(rec, opts.EndColumn)
			if !end.IsZero() {
				durationFeatures(&f, end.Sub(start))
			}
		}
		if opts.IncludeCyclical {
			cyclicalFeatures(&f)
		}
		if opts.IncludeInteractions {
			interactionFeatures(&f)
		}
		out[i] = f
	}

	e.logger.Debug("temporal features derived",
		slog.Int("rows", len(out)),
		slog.String("start_column", string(opts.StartColumn)))

	return out, nil
}

func timeColumn(rec *domain.TripRecord, col domain.Column) time.Time {
	switch col {
	case domain.ColEndedAt:
		return rec.EndedAt
	default:
		return rec.StartedAt
	}
}

func (e *Extractor) timeFeatures(t time.Time) TripFeatures {
	weekday := isoWeekday(t)
	_, week := t.ISOWeek()
	f := TripFeatures{
		Valid:      true,
		Year:       t.Year(),
		Month:      int(t.Month()),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Weekday:    weekday,
		DayOfYear:  t.YearDay(),
		WeekOfYear: week,
		Date:       time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()),
		Season:     season(int(t.Month())),
		IsWeekend:  weekday >= 6,
	}
	f.IsMorningPeak = f.Hour >= morningPeakStart && f.Hour < morningPeakEnd
	f.IsEveningPeak = f.Hour >= eveningPeakStart && f.Hour < eveningPeakEnd
	f.IsPeakHour = f.IsMorningPeak || f.IsEveningPeak
	f.IsHoliday = e.holidays[t.Format("2006-01-02")]
	return f
}

// isoWeekday maps Go's Sunday-based weekday to 1=Monday .. 7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// season maps months to 1=Winter({12,1,2}) 2=Spring 3=Summer 4=Fall.
func season(month int) int {
	switch {
	case month == 12 || month <= 2:
		return 1
	case month <= 5:
		return 2
	case month <= 8:
		return 3
	default:
		return 4
	}
}

func durationFeatures(f *TripFeatures, d time.Duration) {
	minutes := d.Minutes()
	f.DurationMinutes = minutes
	f.DurationSeconds = d.Seconds()
	f.IsShortTrip = minutes <= shortMaxMinutes
	f.IsMediumTrip = minutes > shortMaxMinutes && minutes <= mediumMaxMinutes
	f.IsLongTrip = minutes > mediumMaxMinutes
	f.IsVeryShortTrip = minutes <= veryShortMaxMinutes
	f.DurationCategory = durationCategory(minutes)
}

func durationCategory(minutes float64) string {
	switch {
	case minutes <= veryShortMaxMinutes:
		return CategoryVeryShort
	case minutes <= shortMaxMinutes:
		return CategoryShort
	case minutes <= mediumMaxMinutes:
		return CategoryMedium
	case minutes <= longMaxMinutes:
		return CategoryLong
	default:
		return CategoryVeryLong
	}
}

// cyclicalFeatures encodes periodic fields as sin/cos pairs so their
// distance metric wraps (hour 23 is near hour 0). The day-of-year
// encoding always divides by 365, leap years included.
func cyclicalFeatures(f *TripFeatures) {
	f.HourSin, f.HourCos = cyclical(float64(f.Hour), 24)
	f.WeekdaySin, f.WeekdayCos = cyclical(float64(f.Weekday), 7)
	f.MonthSin, f.MonthCos = cyclical(float64(f.Month), 12)
	f.DayOfYearSin, f.DayOfYearCos = cyclical(float64(f.DayOfYear), 365)
}

func cyclical(value, period float64) (sin, cos float64) {
	angle := 2 * math.Pi * value / period
	return math.Sin(angle), math.Cos(angle)
}

func interactionFeatures(f *TripFeatures) {
	weekend := 0
	if f.IsWeekend {
		weekend = 1
	}
	f.HourWeekday = f.Hour*10 + f.Weekday
	f.SeasonWeekend = f.Season*10 + weekend
	f.MonthHour = f.Month*100 + f.Hour
}
