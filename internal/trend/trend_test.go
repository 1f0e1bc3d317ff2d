package trend

import (
	"competitor-price-monitor/internal/history"
	"competitor-price-monitor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
	"time"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func prices(values ...float64) []types.PriceEntry {
	entries := make([]types.PriceEntry, len(values))
	for i, v := range values {
		entries[i] = types.PriceEntry{Price: v, Timestamp: now.Add(time.Duration(i) * time.Minute)}
	}
	return entries
}

func TestCalculateVolatility(t *testing.T) {
	assert.Equal(t, 0.0, CalculateVolatility(prices(100, 100, 100, 100)))
	assert.InDelta(t, math.Sqrt(200), CalculateVolatility(prices(100, 120, 80, 110, 90)), 1e-12)
	assert.Equal(t, 0.0, CalculateVolatility(prices(100)))
	assert.Equal(t, 0.0, CalculateVolatility(nil))
	assert.Equal(t, CalculateVolatility(prices(100, 120, 80, 110, 90)), CalculateVolatility(prices(100, 120, 80, 110, 90)))
}

func TestCalculatePriceChange(t *testing.T) {
	assert.Equal(t, 0.0, CalculatePriceChange(nil))
	assert.Equal(t, 0.0, CalculatePriceChange(prices(100)))
	assert.InDelta(t, 10.0, CalculatePriceChange(prices(100, 50, 110)), 1e-9)
	assert.InDelta(t, -25.0, CalculatePriceChange(prices(80, 60)), 1e-9)
}

func TestDetermineTrendBoundaries(t *testing.T) {
	assert.Equal(t, types.TrendStable, DetermineTrend(3.0))
	assert.Equal(t, types.TrendUp, DetermineTrend(3.000001))
	assert.Equal(t, types.TrendStable, DetermineTrend(-3.0))
	assert.Equal(t, types.TrendDown, DetermineTrend(-3.000001))
	assert.Equal(t, types.TrendStable, DetermineTrend(0))
}

func TestIdentifyOpportunities(t *testing.T) {
	assert.Equal(t, []string{"short-term correction within an uptrend — entry opportunity"},
		IdentifyOpportunities(-6, 1, 5))
	assert.Equal(t, []string{"high volatility — consider dynamic pricing"},
		IdentifyOpportunities(2, 0, 11))
	assert.Equal(t, []string{"strong uptrend — opportunity to raise prices"},
		IdentifyOpportunities(6, 11, 5))
	assert.Equal(t, []string{"downtrend — opportunity to gain market share"},
		IdentifyOpportunities(-2, -11, 5))
	assert.Equal(t, []string{"stable market — good time to test premium pricing"},
		IdentifyOpportunities(0.5, 0, 2))

	all := IdentifyOpportunities(-6, 1, 12)
	assert.Equal(t, []string{
		"short-term correction within an uptrend — entry opportunity",
		"high volatility — consider dynamic pricing",
	}, all)

	none := IdentifyOpportunities(2, 2, 5)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGenerateSimulatedTrendIsDeterministic(t *testing.T) {
	a := GenerateSimulatedTrend("Widget Pro 3000")
	b := GenerateSimulatedTrend("Widget Pro 3000")
	assert.Equal(t, a, b)
	assert.True(t, a.Simulated)
	assert.NotEqual(t, a, GenerateSimulatedTrend("Gadget"))
}

func TestGenerateSimulatedTrendValues(t *testing.T) {
	// "X" folds to 88, seed = 88 / 2147483647
	got := GenerateSimulatedTrend("X")
	assert.Equal(t, "X", got.ProductName)
	assert.Equal(t, 50.0, got.AvgPrice)
	assert.Equal(t, -5.0, got.PriceChange24h)
	assert.Equal(t, -10.0, got.PriceChange7d)
	assert.Equal(t, -20.0, got.PriceChange30d)
	assert.Equal(t, 0.0, got.Volatility)
	assert.Equal(t, types.TrendDown, got.TrendDirection)
	assert.Empty(t, got.Opportunities)
}

func TestSeedFromNameWrapsTo32Bits(t *testing.T) {
	assert.Equal(t, 0.0, seedFromName(""))
	assert.Equal(t, float64(3105)/2147483647, seedFromName("ab"))

	long := "a very long product name that overflows the hash many times over"
	seed := seedFromName(long)
	assert.GreaterOrEqual(t, seed, 0.0)
	assert.LessOrEqual(t, seed, 1.0)
	assert.Equal(t, seed, seedFromName(long))
}

func TestAnalyzeTrendFallsBackToSimulation(t *testing.T) {
	a := NewAnalyzer(history.NewStore())
	assert.Equal(t, GenerateSimulatedTrend("Widget"), a.AnalyzeTrendAt("Widget", now))
}

func TestAnalyzeTrendAggregatesAllSellers(t *testing.T) {
	s := history.NewStore()
	add := func(platform, seller string, age time.Duration, price float64) {
		s.Append(types.HistoryKey{ProductName: "Widget", Platform: platform, Seller: seller},
			types.PriceEntry{Price: price, Timestamp: now.Add(-age), Source: types.SourceAutomated})
	}

	add("P1", "A", 20*24*time.Hour, 80)
	add("P2", "B", 6*24*time.Hour, 100)
	add("P1", "A", 2*24*time.Hour, 105)
	add("P2", "B", 12*time.Hour, 120)
	add("P1", "A", 1*time.Hour, 110)
	add("P1", "Other", 40*24*time.Hour, 85)
	s.Append(types.HistoryKey{ProductName: "Gadget", Platform: "P1", Seller: "A"},
		types.PriceEntry{Price: 1, Timestamp: now})

	got := NewAnalyzer(s).AnalyzeTrendAt("Widget", now)

	assert.False(t, got.Simulated)
	assert.InDelta(t, (80+100+105+120+110+85)/6.0, got.AvgPrice, 1e-9)
	// 24h window: 120 then 110
	assert.InDelta(t, (110.0-120)/120*100, got.PriceChange24h, 1e-9)
	// 7d window: 100 .. 110
	assert.InDelta(t, 10.0, got.PriceChange7d, 1e-9)
	// 30d window: 80 .. 110
	assert.InDelta(t, 37.5, got.PriceChange30d, 1e-9)
	assert.Equal(t, types.TrendUp, got.TrendDirection)
	assert.InDelta(t, CalculateVolatility(prices(85, 80, 100, 105, 120, 110)), got.Volatility, 1e-12)
}

func TestAnalyzeTrendWindowLowerBoundIsInclusive(t *testing.T) {
	s := history.NewStore()
	key := types.HistoryKey{ProductName: "Widget", Platform: "P1", Seller: "A"}
	s.Append(key, types.PriceEntry{Price: 100, Timestamp: now.Add(-24 * time.Hour)})
	s.Append(key, types.PriceEntry{Price: 150, Timestamp: now})

	got := NewAnalyzer(s).AnalyzeTrendAt("Widget", now)
	assert.InDelta(t, 50.0, got.PriceChange24h, 1e-9)
}

func TestAnalyzeTrendSingleEntry(t *testing.T) {
	s := history.NewStore()
	s.Append(types.HistoryKey{ProductName: "Widget", Platform: "P1", Seller: "A"},
		types.PriceEntry{Price: 42, Timestamp: now})

	a := NewAnalyzer(s)
	a.now = func() time.Time { return now }
	got := a.AnalyzeTrend("Widget")

	require.False(t, got.Simulated)
	assert.Equal(t, 42.0, got.AvgPrice)
	assert.Equal(t, 0.0, got.PriceChange24h)
	assert.Equal(t, 0.0, got.Volatility)
	assert.Equal(t, types.TrendStable, got.TrendDirection)
	assert.Equal(t, []string{"stable market — good time to test premium pricing"}, got.Opportunities)
}
