package history

import (
	"competitor-price-monitor/internal/types"
	"sort"
	"sync"
)

// MaxEntries is the number of prices kept per series
const MaxEntries = 100

// Store holds the bounded price series in memory
type Store struct {
	mu        sync.RWMutex
	histories map[types.HistoryKey]*types.PriceHistory
	limit     int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		histories: make(map[types.HistoryKey]*types.PriceHistory),
		limit:     MaxEntries,
	}
}

// Append adds an entry to the series of key, creating it on first use,
// and drops the oldest entries once the series grows past the limit.
// It returns the length of the series after the append.
func (s *Store) Append(key types.HistoryKey, entry types.PriceEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.histories[key]
	if !exists {
		h = &types.PriceHistory{
			ProductName: key.ProductName,
			Platform:    key.Platform,
			Seller:      key.Seller,
		}
		s.histories[key] = h
	}

	h.Prices = append(h.Prices, entry)
	if over := len(h.Prices) - s.limit; over > 0 {
		kept := make([]types.PriceEntry, s.limit)
		copy(kept, h.Prices[over:])
		h.Prices = kept
	}

	return len(h.Prices)
}

// Get returns a copy of the series for key
func (s *Store) Get(key types.HistoryKey) (types.PriceHistory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.histories[key]
	if !exists {
		return types.PriceHistory{}, false
	}
	return clone(h), true
}

// ByProduct returns copies of every series of a product across platforms and sellers,
// ordered by platform and seller. The result is empty, not nil, for unknown products.
func (s *Store) ByProduct(productName string) []types.PriceHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]types.PriceHistory, 0)
	for key, h := range s.histories {
		if key.ProductName == productName {
			result = append(result, clone(h))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Platform != result[j].Platform {
			return result[i].Platform < result[j].Platform
		}
		return result[i].Seller < result[j].Seller
	})
	return result
}

// Len returns the number of series
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories)
}

func clone(h *types.PriceHistory) types.PriceHistory {
	c := *h
	c.Prices = make([]types.PriceEntry, len(h.Prices))
	copy(c.Prices, h.Prices)
	return c
}
