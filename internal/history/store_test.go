package history

import (
	"competitor-price-monitor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var widgetKey = types.HistoryKey{ProductName: "Widget", Platform: "P1", Seller: "SellerA"}

func entryAt(i int) types.PriceEntry {
	return types.PriceEntry{
		Price:     float64(i),
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Source:    types.SourceAutomated,
	}
}

func TestAppendKeepsLastHundredInOrder(t *testing.T) {
	for _, n := range []int{1, 2, 99, 100, 101, 150, 250} {
		s := NewStore()
		for i := 1; i <= n; i++ {
			s.Append(widgetKey, entryAt(i))
		}

		h, ok := s.Get(widgetKey)
		require.True(t, ok)

		want := n
		if want > MaxEntries {
			want = MaxEntries
		}
		require.Len(t, h.Prices, want, "after %d appends", n)

		first := n - want + 1
		for i, p := range h.Prices {
			assert.Equal(t, float64(first+i), p.Price)
		}
	}
}

func TestAppendCreatesSeriesLazily(t *testing.T) {
	s := NewStore()
	_, ok := s.Get(widgetKey)
	assert.False(t, ok)

	assert.Equal(t, 1, s.Append(widgetKey, entryAt(1)))
	h, ok := s.Get(widgetKey)
	require.True(t, ok)
	assert.Equal(t, "Widget", h.ProductName)
	assert.Equal(t, "P1", h.Platform)
	assert.Equal(t, "SellerA", h.Seller)
	assert.Equal(t, 1, s.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append(widgetKey, entryAt(1))

	h, _ := s.Get(widgetKey)
	h.Prices[0].Price = 999

	again, _ := s.Get(widgetKey)
	assert.Equal(t, 1.0, again.Prices[0].Price)
}

func TestByProduct(t *testing.T) {
	s := NewStore()
	s.Append(types.HistoryKey{ProductName: "Widget", Platform: "P2", Seller: "B"}, entryAt(1))
	s.Append(types.HistoryKey{ProductName: "Widget", Platform: "P1", Seller: "Z"}, entryAt(2))
	s.Append(types.HistoryKey{ProductName: "Widget", Platform: "P1", Seller: "A"}, entryAt(3))
	s.Append(types.HistoryKey{ProductName: "Gadget", Platform: "P1", Seller: "A"}, entryAt(4))

	got := s.ByProduct("Widget")
	require.Len(t, got, 3)
	assert.Equal(t, "P1", got[0].Platform)
	assert.Equal(t, "A", got[0].Seller)
	assert.Equal(t, "Z", got[1].Seller)
	assert.Equal(t, "P2", got[2].Platform)

	none := s.ByProduct("Nothing")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
