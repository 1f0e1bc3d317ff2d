package rules

import (
	"competitor-price-monitor/internal/types"
	"github.com/google/uuid"
	"sort"
	"sync"
	"time"
)

const (
	DefaultFrequency = types.Daily
	DefaultThreshold = 5.0
)

// Registry owns the monitoring rules
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*types.MonitoringRule
	now   func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]*types.MonitoringRule),
		now:   time.Now,
	}
}

// AddRule stores a new active rule and returns its id.
// An empty frequency falls back to daily and a non-positive threshold to 5%.
func (r *Registry) AddRule(productName string, platforms []string, frequency types.Frequency, threshold float64) string {
	if frequency == "" {
		frequency = DefaultFrequency
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	rule := &types.MonitoringRule{
		ID:             uuid.NewString(),
		ProductName:    productName,
		Platforms:      append([]string(nil), platforms...),
		Frequency:      frequency,
		PriceThreshold: threshold,
		IsActive:       true,
		CreatedAt:      r.now(),
	}

	r.mu.Lock()
	r.rules[rule.ID] = rule
	r.mu.Unlock()

	return rule.ID
}

// RemoveRule deletes a rule, reporting whether it existed
func (r *Registry) RemoveRule(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; !exists {
		return false
	}
	delete(r.rules, id)
	return true
}

// Deactivate stops scheduling a rule without deleting it
func (r *Registry) Deactivate(id string) bool {
	return r.setActive(id, false)
}

// Activate resumes scheduling a rule
func (r *Registry) Activate(id string) bool {
	return r.setActive(id, true)
}

func (r *Registry) setActive(id string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, exists := r.rules[id]
	if !exists {
		return false
	}
	rule.IsActive = active
	return true
}

// MarkChecked records a successful check. Rules removed meanwhile are ignored.
func (r *Registry) MarkChecked(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rule, exists := r.rules[id]; exists {
		checked := at
		rule.LastCheck = &checked
	}
}

// Get returns a copy of a rule
func (r *Registry) Get(id string) (types.MonitoringRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return types.MonitoringRule{}, false
	}
	return copyRule(rule), true
}

// List returns every rule ordered by creation
func (r *Registry) List() []types.MonitoringRule {
	return r.collect(func(*types.MonitoringRule) bool { return true })
}

// ListActiveRules returns the active rules ordered by creation
func (r *Registry) ListActiveRules() []types.MonitoringRule {
	return r.collect(func(rule *types.MonitoringRule) bool { return rule.IsActive })
}

func (r *Registry) collect(keep func(*types.MonitoringRule) bool) []types.MonitoringRule {
	r.mu.RLock()
	result := make([]types.MonitoringRule, 0, len(r.rules))
	for _, rule := range r.rules {
		if keep(rule) {
			result = append(result, copyRule(rule))
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Stats summarizes the registry. AlertsLast24h is left at zero, the registry does not see alerts.
func (r *Registry) Stats() types.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := types.Stats{TotalRules: len(r.rules)}
	products := make(map[string]struct{})
	var hours []float64

	for _, rule := range r.rules {
		products[rule.ProductName] = struct{}{}
		if !rule.IsActive {
			continue
		}
		stats.ActiveRules++
		if h, ok := frequencyHours(rule.Frequency); ok {
			hours = append(hours, h)
		}
	}

	stats.Products = len(products)
	stats.AverageFrequency = frequencyLabel(hours)
	return stats
}

func frequencyHours(f types.Frequency) (float64, bool) {
	interval, ok := f.Interval()
	if !ok {
		return 0, false
	}
	return interval.Hours(), true
}

// frequencyLabel buckets the mean check interval of the active rules
func frequencyLabel(hours []float64) string {
	if len(hours) == 0 {
		return "Low"
	}

	var sum float64
	for _, h := range hours {
		sum += h
	}
	avg := sum / float64(len(hours))

	switch {
	case avg < 2:
		return "High"
	case avg < 24:
		return "Medium"
	default:
		return "Low"
	}
}

func copyRule(rule *types.MonitoringRule) types.MonitoringRule {
	c := *rule
	c.Platforms = append([]string(nil), rule.Platforms...)
	if rule.LastCheck != nil {
		lc := *rule.LastCheck
		c.LastCheck = &lc
	}
	return c
}
