package economics

import (
	"tripflow/pkg/contracts/domain"
)

// TariffKey identifies one tariff row.
type TariffKey struct {
	Year int
	Tier domain.UserTier
	Bike domain.BikeType
}

// Tariff is the pricing triple for a (year, tier, bike type) tuple.
type Tariff struct {
	UnlockFee   float64
	PerMinute   float64
	FreeMinutes float64
}

// latestTariffYear is the fallback for years outside the table.
const latestTariffYear = 2025

// tariffTable returns the full published pricing history. It is built
// once per engine and never mutated afterwards, so concurrent reads
// across engine instances are safe.
func tariffTable() map[TariffKey]Tariff {
	t := map[TariffKey]Tariff{}
	add := func(year int, tier domain.UserTier, bike domain.BikeType, unlock, perMinute, free float64) {
		t[TariffKey{Year: year, Tier: tier, Bike: bike}] = Tariff{
			UnlockFee:   unlock,
			PerMinute:   perMinute,
			FreeMinutes: free,
		}
	}

	add(2020, domain.TierCasual, domain.BikeClassic, 2.50, 0.125, 0)
	add(2020, domain.TierCasual, domain.BikeElectric, 3.00, 0.185, 0)
	add(2020, domain.TierMember, domain.BikeClassic, 0.00, 0.126, 60)
	add(2020, domain.TierMember, domain.BikeElectric, 0.00, 0.154, 45)

	add(2021, domain.TierCasual, domain.BikeClassic, 2.80, 0.135, 0)
	add(2021, domain.TierCasual, domain.BikeElectric, 3.20, 0.195, 0)
	add(2021, domain.TierMember, domain.BikeClassic, 0.00, 0.136, 60)
	add(2021, domain.TierMember, domain.BikeElectric, 0.00, 0.164, 45)

	add(2022, domain.TierCasual, domain.BikeClassic, 0.90, 0.141, 10)
	add(2022, domain.TierCasual, domain.BikeElectric, 1.00, 0.355, 5)
	add(2022, domain.TierMember, domain.BikeClassic, 0.00, 0.146, 60)
	add(2022, domain.TierMember, domain.BikeElectric, 0.00, 0.143, 30)

	add(2023, domain.TierCasual, domain.BikeClassic, 0.90, 0.151, 10)
	add(2023, domain.TierCasual, domain.BikeElectric, 1.00, 0.385, 5)
	add(2023, domain.TierMember, domain.BikeClassic, 0.00, 0.156, 60)
	add(2023, domain.TierMember, domain.BikeElectric, 0.00, 0.153, 30)

	add(2024, domain.TierCasual, domain.BikeClassic, 0.90, 0.161, 10)
	add(2024, domain.TierCasual, domain.BikeElectric, 1.00, 0.405, 5)
	add(2024, domain.TierMember, domain.BikeClassic, 0.00, 0.166, 60)
	add(2024, domain.TierMember, domain.BikeElectric, 0.00, 0.163, 30)

	add(2025, domain.TierCasual, domain.BikeClassic, 0.90, 0.171, 10)
	add(2025, domain.TierCasual, domain.BikeElectric, 1.00, 0.425, 5)
	add(2025, domain.TierMember, domain.BikeClassic, 0.00, 0.176, 60)
	add(2025, domain.TierMember, domain.BikeElectric, 0.00, 0.173, 30)

	return t
}
