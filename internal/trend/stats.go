package trend

import (
	"competitor-price-monitor/internal/types"
	"math"
)

const trendBand = 3.0

// CalculatePriceChange returns the percent move from the first to the last entry,
// 0 when there are fewer than two entries. Entries must be in chronological order.
func CalculatePriceChange(entries []types.PriceEntry) float64 {
	if len(entries) < 2 {
		return 0
	}
	first := entries[0].Price
	last := entries[len(entries)-1].Price
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// CalculateVolatility returns the coefficient of variation in percent,
// using the population standard deviation.
func CalculateVolatility(entries []types.PriceEntry) float64 {
	if len(entries) < 2 {
		return 0
	}

	mean := averagePrice(entries)
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, e := range entries {
		variance += (e.Price - mean) * (e.Price - mean)
	}
	variance /= float64(len(entries))

	return math.Sqrt(variance) / mean * 100
}

// DetermineTrend classifies a 7 day change; moves within +-3% are noise
func DetermineTrend(change7d float64) types.TrendDirection {
	switch {
	case change7d > trendBand:
		return types.TrendUp
	case change7d < -trendBand:
		return types.TrendDown
	default:
		return types.TrendStable
	}
}

// IdentifyOpportunities evaluates the independent opportunity rules in fixed order
func IdentifyOpportunities(change24h, change7d, volatility float64) []string {
	opportunities := make([]string, 0)

	if change24h < -5 && change7d > 0 {
		opportunities = append(opportunities, "short-term correction within an uptrend — entry opportunity")
	}
	if volatility > 10 {
		opportunities = append(opportunities, "high volatility — consider dynamic pricing")
	}
	if change24h > 5 && change7d > 10 {
		opportunities = append(opportunities, "strong uptrend — opportunity to raise prices")
	}
	if change7d < -10 {
		opportunities = append(opportunities, "downtrend — opportunity to gain market share")
	}
	if math.Abs(change24h) < 1 && volatility < 3 {
		opportunities = append(opportunities, "stable market — good time to test premium pricing")
	}

	return opportunities
}

func averagePrice(entries []types.PriceEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Price
	}
	return sum / float64(len(entries))
}
