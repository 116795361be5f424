// Package economics prices trips against the published tariff history and
// rolls them up into revenue and unit-economics metrics.
//
// The Engine resolves a (year, tier, bike type) tariff, computes exact
// per-trip cost with free-minute windows, aggregates revenue by user tier
// and bike type, estimates subscription revenue from member activity, and
// derives ARPU, LTV, ROI, and LTV/CAC. Modeling assumptions (monthly fee,
// capture rate, customer lifetime, CAC, gross margin) come from the
// pricing configuration, not from the data.
package economics
