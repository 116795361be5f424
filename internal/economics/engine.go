package economics

import (
	"log/slog"
	"sort"
	"strings"

	"tripflow/internal/config"
	"tripflow/pkg/contracts/domain"
)

// Engine computes per-trip cost from the tariff table and rolls trips
// up into revenue and unit-economics metrics. The tariff table is
// immutable after construction; the engine holds no other state.
type Engine struct {
	tariffs     map[TariffKey]Tariff
	assumptions config.PricingConfig
	logger      *slog.Logger
}

// NewEngine creates an engine over the published tariff history with
// the given unit-economics assumptions.
func NewEngine(assumptions config.PricingConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tariffs:     tariffTable(),
		assumptions: assumptions,
		logger:      logger,
	}
}

// Lookup returns the tariff for the given key, falling back to the
// latest published year when the requested year is outside the table.
// The fallback is silent by design: historical files occasionally carry
// stray years and a tariff miss must not poison a whole aggregation.
func (e *Engine) Lookup(year int, tier domain.UserTier, bike domain.BikeType) Tariff {
	if t, ok := e.tariffs[TariffKey{Year: year, Tier: tier, Bike: bike}]; ok {
		return t
	}
	e.logger.Debug("tariff year not in table, using latest",
		slog.Int("year", year),
		slog.Int("fallback_year", latestTariffYear))
	return e.tariffs[TariffKey{Year: latestTariffYear, Tier: tier, Bike: bike}]
}

// Cost computes the price of a single trip. The formula is exact float
// arithmetic, no rounding, so aggregate sums stay reproducible:
// cost = unlock fee when within the free minutes, otherwise
// unlock fee + (minutes - free minutes) * per-minute rate.
func (e *Engine) Cost(durationMinutes float64, userTier, bikeType string, year int) float64 {
	tier := NormalizeTier(userTier)
	bike := NormalizeBikeType(bikeType)
	t := e.Lookup(year, tier, bike)

	if durationMinutes <= t.FreeMinutes {
		return t.UnlockFee
	}
	return t.UnlockFee + (durationMinutes-t.FreeMinutes)*t.PerMinute
}

// NormalizeTier treats anything that is not exactly "casual" as a
// member. Tier strings are lowercased during cleaning, so this is the
// only normalization the engine applies.
func NormalizeTier(userTier string) domain.UserTier {
	if userTier == string(domain.TierCasual) {
		return domain.TierCasual
	}
	return domain.TierMember
}

// NormalizeBikeType maps any rideable naming that mentions "electric"
// to the electric tariff and everything else to classic.
func NormalizeBikeType(bikeType string) domain.BikeType {
	if strings.Contains(strings.ToLower(bikeType), "electric") {
		return domain.BikeElectric
	}
	return domain.BikeClassic
}

// GroupMetrics aggregates rides and revenue for one grouping value.
type GroupMetrics struct {
	Rides   int     `json:"rides" yaml:"rides"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
	AvgCost float64 `json:"avg_cost" yaml:"avg_cost"`
}

// RevenueMetrics is the per-trip cost roll-up for a dataset.
type RevenueMetrics struct {
	TotalRides   int                     `json:"total_rides" yaml:"total_rides"`
	TotalRevenue float64                 `json:"total_revenue" yaml:"total_revenue"`
	AvgRideCost  float64                 `json:"avg_ride_cost" yaml:"avg_ride_cost"`
	ByUserTier   map[string]GroupMetrics `json:"by_user_tier" yaml:"by_user_tier"`
	ByBikeType   map[string]GroupMetrics `json:"by_bike_type" yaml:"by_bike_type"`
	SkippedRows  int                     `json:"skipped_rows" yaml:"skipped_rows"`
}

// ComputeRevenueMetrics prices every trip and aggregates totals plus
// per-tier and per-bike-type breakdowns. Grouping preserves every
// distinct value observed in the data. Rows with no determinable
// duration or start year are skipped and counted.
func (e *Engine) ComputeRevenueMetrics(ds *domain.Dataset) RevenueMetrics {
	metrics := RevenueMetrics{
		ByUserTier: make(map[string]GroupMetrics),
		ByBikeType: make(map[string]GroupMetrics),
	}

	for i := range ds.Records {
		rec := &ds.Records[i]
		minutes, ok := rec.Duration()
		if !ok || rec.StartedAt.IsZero() {
			metrics.SkippedRows++
			continue
		}
		cost := e.Cost(minutes, rec.MemberCasual, rec.RideableType, rec.StartedAt.Year())

		metrics.TotalRides++
		metrics.TotalRevenue += cost
		accumulate(metrics.ByUserTier, rec.MemberCasual, cost)
		accumulate(metrics.ByBikeType, rec.RideableType, cost)
	}

	if metrics.TotalRides > 0 {
		metrics.AvgRideCost = metrics.TotalRevenue / float64(metrics.TotalRides)
	}
	finalize(metrics.ByUserTier)
	finalize(metrics.ByBikeType)

	if metrics.SkippedRows > 0 {
		e.logger.Warn("rows skipped during revenue aggregation",
			slog.Int("skipped", metrics.SkippedRows))
	}

	return metrics
}

func accumulate(groups map[string]GroupMetrics, key string, cost float64) {
	g := groups[key]
	g.Rides++
	g.Revenue += cost
	groups[key] = g
}

func finalize(groups map[string]GroupMetrics) {
	for key, g := range groups {
		if g.Rides > 0 {
			g.AvgCost = g.Revenue / float64(g.Rides)
		}
		groups[key] = g
	}
}

// SubscriptionEstimate is the heuristic monthly-subscription revenue
// model: distinct member trips per (year, month), scaled by the monthly
// fee and the configured capture rate. It is an approximation of
// billing, not billing.
type SubscriptionEstimate struct {
	SubscriptionRevenue  float64 `json:"subscription_revenue" yaml:"subscription_revenue"`
	MonthlyFee           float64 `json:"monthly_subscription_fee" yaml:"monthly_subscription_fee"`
	EstimatedSubscribers float64 `json:"estimated_subscribers" yaml:"estimated_subscribers"`
	ActiveMonths         int     `json:"active_months" yaml:"active_months"`
}

// EstimateSubscriptionRevenue computes the subscription contribution
// over all member trips in the dataset.
func (e *Engine) EstimateSubscriptionRevenue(ds *domain.Dataset) SubscriptionEstimate {
	type monthKey struct {
		year  int
		month int
	}
	perMonth := make(map[monthKey]map[string]bool)

	for i := range ds.Records {
		rec := &ds.Records[i]
		if rec.MemberCasual != string(domain.TierMember) || rec.StartedAt.IsZero() {
			continue
		}
		key := monthKey{year: rec.StartedAt.Year(), month: int(rec.StartedAt.Month())}
		if perMonth[key] == nil {
			perMonth[key] = make(map[string]bool)
		}
		perMonth[key][rec.RideID] = true
	}

	totalActive := 0
	for _, ids := range perMonth {
		totalActive += len(ids)
	}

	capture := e.assumptions.SubscriberCaptureRate
	fee := e.assumptions.MonthlySubscriptionFee
	return SubscriptionEstimate{
		SubscriptionRevenue:  float64(totalActive) * fee * capture,
		MonthlyFee:           fee,
		EstimatedSubscribers: float64(totalActive) * capture,
		ActiveMonths:         len(perMonth),
	}
}

// KPIReport composes the ride and subscription revenue into standard
// unit-economics ratios. Every input that is not computed from the
// dataset (lifetime, CAC, gross margin, capture rate) is a stated
// assumption carried in the pricing configuration.
type KPIReport struct {
	ARPU                float64 `json:"arpu" yaml:"arpu"`
	LTV                 float64 `json:"ltv" yaml:"ltv"`
	CAC                 float64 `json:"cac" yaml:"cac"`
	ROI                 float64 `json:"roi" yaml:"roi"`
	GrossMargin         float64 `json:"gross_margin" yaml:"gross_margin"`
	LTVCACRatio         float64 `json:"ltv_cac_ratio" yaml:"ltv_cac_ratio"`
	TotalRevenue        float64 `json:"total_revenue" yaml:"total_revenue"`
	RideRevenue         float64 `json:"ride_revenue" yaml:"ride_revenue"`
	SubscriptionRevenue float64 `json:"subscription_revenue" yaml:"subscription_revenue"`
}

// ComputeKPIs derives ARPU, LTV, ROI and related ratios for a dataset.
// Unique users are approximated by distinct ride IDs, matching how the
// subscription estimate approximates subscribers.
func (e *Engine) ComputeKPIs(ds *domain.Dataset) KPIReport {
	revenue := e.ComputeRevenueMetrics(ds)
	subscription := e.EstimateSubscriptionRevenue(ds)

	users := make(map[string]bool, ds.Len())
	for i := range ds.Records {
		users[ds.Records[i].RideID] = true
	}

	total := revenue.TotalRevenue + subscription.SubscriptionRevenue
	var arpu float64
	if len(users) > 0 {
		arpu = total / float64(len(users))
	}

	cac := e.assumptions.CustomerAcquisitionCost
	ltv := arpu * e.assumptions.CustomerLifetimeMonths
	report := KPIReport{
		ARPU:                arpu,
		LTV:                 ltv,
		CAC:                 cac,
		GrossMargin:         e.assumptions.GrossMargin,
		TotalRevenue:        total,
		RideRevenue:         revenue.TotalRevenue,
		SubscriptionRevenue: subscription.SubscriptionRevenue,
	}
	if cac > 0 {
		report.ROI = (ltv - cac) / cac * 100
		report.LTVCACRatio = ltv / cac
	}
	return report
}

// TariffYears returns the years covered by the tariff table in
// ascending order.
func (e *Engine) TariffYears() []int {
	seen := make(map[int]bool)
	for key := range e.tariffs {
		seen[key.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
