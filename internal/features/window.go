package features

import (
	"math"
	"sort"
	"time"
)

// SeriesPoint is one observation of a daily (or otherwise dated) series,
// such as ride counts or revenue per day.
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// WindowFeatures holds lag, lead, and rolling-window derivations of a
// series. All slices are aligned with Points, which is the input sorted
// by date. Entries without enough history are nil, never an error.
type WindowFeatures struct {
	Points       []SeriesPoint
	Lags         map[int][]*float64
	Leads        map[int][]*float64
	RollingMeans map[int][]*float64
	RollingStds  map[int][]*float64
}

// ComputeWindowFeatures sorts the series by date and derives, for every
// period p: the value p observations back (lag), p observations ahead
// (lead), and for p > 1 the rolling mean and sample standard deviation
// over windows of size p ending at each observation.
func ComputeWindowFeatures(points []SeriesPoint, periods []int) WindowFeatures {
	sorted := make([]SeriesPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	values := make([]float64, len(sorted))
	for i, p := range sorted {
		values[i] = p.Value
	}

	out := WindowFeatures{
		Points:       sorted,
		Lags:         make(map[int][]*float64, len(periods)),
		Leads:        make(map[int][]*float64, len(periods)),
		RollingMeans: make(map[int][]*float64),
		RollingStds:  make(map[int][]*float64),
	}

	for _, period := range periods {
		if period <= 0 {
			continue
		}
		out.Lags[period] = shift(values, period)
		out.Leads[period] = shift(values, -period)
		if period > 1 {
			mean, std := rolling(values, period)
			out.RollingMeans[period] = mean
			out.RollingStds[period] = std
		}
	}

	return out
}

// shift returns the series moved by the given offset: positive offsets
// look backward (lag), negative offsets look forward (lead).
func shift(values []float64, offset int) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		src := i - offset
		if src >= 0 && src < len(values) {
			v := values[src]
			out[i] = &v
		}
	}
	return out
}

// rolling computes the mean and sample standard deviation over trailing
// windows of the given size. Positions before the first complete window
// are nil.
func rolling(values []float64, window int) (means, stds []*float64) {
	means = make([]*float64, len(values))
	stds = make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(window)

		varSum := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / float64(window-1))

		m, s := mean, std
		means[i] = &m
		stds[i] = &s
	}
	return means, stds
}
