package trend

import (
	"competitor-price-monitor/internal/types"
	"sort"
	"time"
)

const (
	window24h = 24 * time.Hour
	window7d  = 7 * 24 * time.Hour
	window30d = 30 * 24 * time.Hour
)

// HistorySource returns every series recorded for a product
type HistorySource interface {
	ByProduct(productName string) []types.PriceHistory
}

// Analyzer derives market trends from stored price histories
type Analyzer struct {
	source HistorySource
	now    func() time.Time
}

// NewAnalyzer creates an analyzer over source
func NewAnalyzer(source HistorySource) *Analyzer {
	return &Analyzer{source: source, now: time.Now}
}

// AnalyzeTrend computes the trend of a product as of now
func (a *Analyzer) AnalyzeTrend(productName string) types.MarketTrend {
	return a.AnalyzeTrendAt(productName, a.now())
}

// AnalyzeTrendAt aggregates all platforms and sellers of a product.
// Products without any recorded price get the simulated trend.
func (a *Analyzer) AnalyzeTrendAt(productName string, now time.Time) types.MarketTrend {
	entries := flatten(a.source.ByProduct(productName))
	if len(entries) == 0 {
		return GenerateSimulatedTrend(productName)
	}

	change24h := CalculatePriceChange(since(entries, now.Add(-window24h)))
	change7d := CalculatePriceChange(since(entries, now.Add(-window7d)))
	volatility := CalculateVolatility(entries)

	return types.MarketTrend{
		ProductName:    productName,
		AvgPrice:       averagePrice(entries),
		PriceChange24h: change24h,
		PriceChange7d:  change7d,
		PriceChange30d: CalculatePriceChange(since(entries, now.Add(-window30d))),
		Volatility:     volatility,
		TrendDirection: DetermineTrend(change7d),
		Opportunities:  IdentifyOpportunities(change24h, change7d, volatility),
	}
}

func flatten(histories []types.PriceHistory) []types.PriceEntry {
	var entries []types.PriceEntry
	for _, h := range histories {
		entries = append(entries, h.Prices...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// since keeps the entries at or after from; entries are sorted
func since(entries []types.PriceEntry, from time.Time) []types.PriceEntry {
	i := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Timestamp.Before(from)
	})
	return entries[i:]
}
