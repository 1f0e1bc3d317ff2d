package price

import (
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sort"
	"sync"
)

// Fetcher returns the current competitor prices of a product
type Fetcher interface {
	Fetch(ctx context.Context, productName string) ([]types.Observation, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, productName string) ([]types.Observation, error)

func (f FetcherFunc) Fetch(ctx context.Context, productName string) ([]types.Observation, error) {
	return f(ctx, productName)
}

// Multi merges the observations of one fetcher per platform
type Multi struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewMulti creates an empty multi fetcher
func NewMulti() *Multi {
	return &Multi{fetchers: make(map[string]Fetcher)}
}

// Register sets the fetcher responsible for a platform
func (m *Multi) Register(platform string, f Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchers[platform] = f
}

// Platforms returns the registered platforms, sorted
func (m *Multi) Platforms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	platforms := make([]string, 0, len(m.fetchers))
	for p := range m.fetchers {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}

// Fetch queries every platform in order. Observations without a platform are
// attributed to the platform of the fetcher that produced them.
// Any failing platform fails the whole fetch so the rule is retried on the next cycle.
func (m *Multi) Fetch(ctx context.Context, productName string) ([]types.Observation, error) {
	var all []types.Observation

	for _, platform := range m.Platforms() {
		m.mu.RLock()
		f := m.fetchers[platform]
		m.mu.RUnlock()

		observations, err := f.Fetch(ctx, productName)
		if err != nil {
			return nil, errors.Wrapf(err, "platform %s", platform)
		}

		log.Debugf("fetched %d prices for %q from %s", len(observations), productName, platform)
		for _, o := range observations {
			if o.Platform == "" {
				o.Platform = platform
			}
			all = append(all, o)
		}
	}

	return all, nil
}
