package rules

import (
	"competitor-price-monitor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedRegistry() *Registry {
	r := NewRegistry()
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return r
}

func TestAddRuleDefaults(t *testing.T) {
	r := fixedRegistry()
	id := r.AddRule("Widget", nil, "", 0)
	require.NotEmpty(t, id)

	rule, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Widget", rule.ProductName)
	assert.Equal(t, types.Daily, rule.Frequency)
	assert.Equal(t, 5.0, rule.PriceThreshold)
	assert.True(t, rule.IsActive)
	assert.Nil(t, rule.LastCheck)
	assert.False(t, rule.CreatedAt.IsZero())

	other := r.AddRule("Widget", []string{"P1"}, types.Hourly, 7.5)
	assert.NotEqual(t, id, other)
}

func TestRemoveRule(t *testing.T) {
	r := fixedRegistry()
	id := r.AddRule("Widget", nil, types.Daily, 5)

	assert.True(t, r.RemoveRule(id))
	assert.False(t, r.RemoveRule(id))
	_, ok := r.Get(id)
	assert.False(t, ok)
}

func TestListActiveRules(t *testing.T) {
	r := fixedRegistry()
	a := r.AddRule("A", nil, types.Daily, 5)
	b := r.AddRule("B", nil, types.Daily, 5)
	c := r.AddRule("C", nil, types.Daily, 5)
	require.True(t, r.Deactivate(b))

	active := r.ListActiveRules()
	require.Len(t, active, 2)
	assert.Equal(t, a, active[0].ID)
	assert.Equal(t, c, active[1].ID)
	assert.Len(t, r.List(), 3)

	require.True(t, r.Activate(b))
	assert.Len(t, r.ListActiveRules(), 3)
	assert.False(t, r.Activate("missing"))
}

func TestIsDue(t *testing.T) {
	now := base
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name string
		rule types.MonitoringRule
		want bool
	}{
		{"never checked", types.MonitoringRule{Frequency: types.Weekly}, true},
		{"never checked unknown frequency", types.MonitoringRule{Frequency: "monthly"}, true},
		{"hourly 61 minutes", types.MonitoringRule{Frequency: types.Hourly, LastCheck: at(61 * time.Minute)}, true},
		{"hourly 59 minutes", types.MonitoringRule{Frequency: types.Hourly, LastCheck: at(59 * time.Minute)}, false},
		{"hourly exactly one hour", types.MonitoringRule{Frequency: types.Hourly, LastCheck: at(time.Hour)}, false},
		{"daily 25 hours", types.MonitoringRule{Frequency: types.Daily, LastCheck: at(25 * time.Hour)}, true},
		{"daily 23 hours", types.MonitoringRule{Frequency: types.Daily, LastCheck: at(23 * time.Hour)}, false},
		{"weekly 8 days", types.MonitoringRule{Frequency: types.Weekly, LastCheck: at(8 * 24 * time.Hour)}, true},
		{"weekly 6 days", types.MonitoringRule{Frequency: types.Weekly, LastCheck: at(6 * 24 * time.Hour)}, false},
		{"unknown frequency", types.MonitoringRule{Frequency: "monthly", LastCheck: at(1000 * time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.rule, now))
		})
	}
}

func TestDueRulesAndMarkChecked(t *testing.T) {
	r := fixedRegistry()
	hourly := r.AddRule("A", nil, types.Hourly, 5)
	daily := r.AddRule("B", nil, types.Daily, 5)
	paused := r.AddRule("C", nil, types.Hourly, 5)
	r.Deactivate(paused)

	due := r.DueRules(base)
	require.Len(t, due, 2)

	r.MarkChecked(hourly, base)
	r.MarkChecked(daily, base)
	assert.Empty(t, r.DueRules(base.Add(30*time.Minute)))

	due = r.DueRules(base.Add(61 * time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, hourly, due[0].ID)

	r.MarkChecked("missing", base)
}

func TestStats(t *testing.T) {
	r := fixedRegistry()
	assert.Equal(t, types.Stats{AverageFrequency: "Low"}, r.Stats())

	r.AddRule("A", nil, types.Hourly, 5)
	assert.Equal(t, "High", r.Stats().AverageFrequency)

	r.AddRule("A", []string{"P2"}, types.Hourly, 5)
	r.AddRule("B", nil, types.Daily, 5)
	// (1 + 1 + 24) / 3 = 8.67
	assert.Equal(t, "Medium", r.Stats().AverageFrequency)

	weekly := r.AddRule("C", nil, types.Weekly, 5)
	// (1 + 1 + 24 + 168) / 4 = 48.5
	stats := r.Stats()
	assert.Equal(t, "Low", stats.AverageFrequency)
	assert.Equal(t, 4, stats.TotalRules)
	assert.Equal(t, 4, stats.ActiveRules)
	assert.Equal(t, 3, stats.Products)
	assert.Equal(t, 0, stats.AlertsLast24h)

	r.Deactivate(weekly)
	stats = r.Stats()
	assert.Equal(t, 3, stats.ActiveRules)
	assert.Equal(t, 3, stats.Products)
	assert.Equal(t, "Medium", stats.AverageFrequency)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - product: Widget
    platforms: [P1, P2]
    frequency: hourly
    threshold: 7
  - product: Gadget
    paused: true
sources:
  - platform: P1
`), 0o644))

	specs, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	r := fixedRegistry()
	ids, err := r.Seed(specs)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	widget, _ := r.Get(ids[0])
	assert.Equal(t, []string{"P1", "P2"}, widget.Platforms)
	assert.Equal(t, types.Hourly, widget.Frequency)
	assert.Equal(t, 7.0, widget.PriceThreshold)

	gadget, _ := r.Get(ids[1])
	assert.Equal(t, types.Daily, gadget.Frequency)
	assert.False(t, gadget.IsActive)
}

func TestLoadSeedMissingFile(t *testing.T) {
	specs, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Empty(t, specs)
}

func TestSeedRejectsBadSpecs(t *testing.T) {
	r := fixedRegistry()
	_, err := r.Seed([]RuleSpec{{Product: "A", Frequency: "monthly"}})
	assert.Error(t, err)

	_, err = r.Seed([]RuleSpec{{Frequency: "daily"}})
	assert.Error(t, err)
}
