// Package features derives analytical features from cleaned trip data.
//
// The temporal extractor produces calendar components (year through
// minute, ISO weekday, day and week of year, season), boolean flags
// (weekend, peak hours, holidays), duration categories, cyclical sin/cos
// encodings, and interaction encodings for every trip. Rows whose source
// timestamp is null come back with Valid=false instead of failing the
// whole extraction.
//
// ComputeWindowFeatures complements the per-trip features with lag, lead,
// and rolling statistics over dated aggregate series such as daily ride
// counts.
package features
