package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type memoryStore struct {
	values map[string]map[string]map[string]float64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]map[string]map[string]float64)}
}

func (s *memoryStore) SaveMetric(metricName, labelKey, labelValue string, value float64) error {
	if s.values[metricName] == nil {
		s.values[metricName] = make(map[string]map[string]float64)
	}
	if s.values[metricName][labelKey] == nil {
		s.values[metricName][labelKey] = make(map[string]float64)
	}
	s.values[metricName][labelKey][labelValue] = value
	return nil
}

func (s *memoryStore) GetMetric(metricName string) (float64, error) {
	return s.values[metricName][""][""], nil
}

func (s *memoryStore) GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64)
	for k, v := range s.values[metricName] {
		if k != "" {
			out[k] = v
		}
	}
	return out, nil
}

func TestNewMonitorRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMonitor(reg)
	m.RuleChecks.WithLabelValues("ok").Inc()
	m.AlertsEmitted.WithLabelValues("high").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "competitor_price_monitor_cycles_total")
	assert.Contains(t, names, "competitor_price_monitor_rule_checks_total")
	assert.Contains(t, names, "competitor_price_monitor_alerts_total")
	assert.Contains(t, names, "competitor_price_monitor_active_rules")

	assert.Panics(t, func() { NewMonitor(reg) }, "double registration")
}

func TestSaveAndLoad(t *testing.T) {
	store := newMemoryStore()

	m := NewMonitor(prometheus.NewRegistry())
	m.Cycles.Add(12)
	m.Observations.Add(40)
	m.RuleChecks.WithLabelValues("ok").Add(10)
	m.RuleChecks.WithLabelValues("error").Add(2)
	m.AlertsEmitted.WithLabelValues("medium").Add(3)
	m.Save(store)

	assert.Equal(t, 12.0, store.values["cycles_total"][""][""])
	assert.Equal(t, 2.0, store.values["rule_checks_total"]["result"]["error"])

	restored := NewMonitor(prometheus.NewRegistry())
	restored.Load(store)
	assert.Equal(t, 12.0, Value(restored.Cycles))
	assert.Equal(t, 40.0, Value(restored.Observations))
	assert.Equal(t, 10.0, Value(restored.RuleChecks.WithLabelValues("ok")))
	assert.Equal(t, 2.0, Value(restored.RuleChecks.WithLabelValues("error")))
	assert.Equal(t, 3.0, Value(restored.AlertsEmitted.WithLabelValues("medium")))
}
