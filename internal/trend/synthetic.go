package trend

import (
	"competitor-price-monitor/internal/types"
	"github.com/shopspring/decimal"
	"math"
	"unicode/utf16"
)

// seedFromName folds the product name into a signed 32-bit hash and maps it onto [0,1].
// The fold is hash*31 + c over UTF-16 code units, wrapped to int32 after every step.
func seedFromName(name string) float64 {
	var hash int32
	for _, c := range utf16.Encode([]rune(name)) {
		hash = (hash << 5) - hash + int32(c)
	}
	return math.Abs(float64(hash)) / 2147483647
}

// GenerateSimulatedTrend returns the deterministic trend used when a product has no history
func GenerateSimulatedTrend(productName string) types.MarketTrend {
	seed := seedFromName(productName)

	change24h := round2((seed - 0.5) * 10)
	change7d := round2((seed - 0.5) * 20)
	volatility := round2(seed * 15)

	return types.MarketTrend{
		ProductName:    productName,
		AvgPrice:       round2(50 + seed*200),
		PriceChange24h: change24h,
		PriceChange7d:  change7d,
		PriceChange30d: round2((seed - 0.5) * 40),
		Volatility:     volatility,
		TrendDirection: DetermineTrend(change7d),
		Opportunities:  IdentifyOpportunities(change24h, change7d, volatility),
		Simulated:      true,
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
