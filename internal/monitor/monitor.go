package monitor

import (
	"competitor-price-monitor/internal/alert"
	"competitor-price-monitor/internal/history"
	"competitor-price-monitor/internal/metrics"
	"competitor-price-monitor/internal/price"
	"competitor-price-monitor/internal/rules"
	"competitor-price-monitor/internal/trend"
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

// DefaultInterval is the period of the scheduler ticker
const DefaultInterval = 5 * time.Minute

// AlertCounter counts archived alerts, used for the 24h figure of Stats
type AlertCounter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Monitor runs monitoring cycles over the active rules
type Monitor struct {
	registry *rules.Registry
	store    *history.Store
	fetcher  price.Fetcher
	pipeline *alert.Pipeline
	analyzer *trend.Analyzer

	metrics *metrics.Monitor
	counter AlertCounter

	cycleMutex sync.Mutex
	now        func() time.Time
}

// New creates a monitor. The registry and store are owned by the caller.
func New(registry *rules.Registry, store *history.Store, fetcher price.Fetcher, pipeline *alert.Pipeline) *Monitor {
	return &Monitor{
		registry: registry,
		store:    store,
		fetcher:  fetcher,
		pipeline: pipeline,
		analyzer: trend.NewAnalyzer(store),
		now:      time.Now,
	}
}

// WithMetrics records cycle counters on m
func (m *Monitor) WithMetrics(mm *metrics.Monitor) *Monitor {
	m.metrics = mm
	return m
}

// WithAlertCounter sets the archive used to fill AlertsLast24h
func (m *Monitor) WithAlertCounter(c AlertCounter) *Monitor {
	m.counter = c
	return m
}

// Start runs a cycle immediately and then one per interval until ctx is done.
// A cycle in progress when ctx is cancelled runs to completion.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("Monitoring scheduler started, interval %s", interval)
	m.RunCycle(context.WithoutCancel(ctx), m.now())

	for {
		select {
		case <-ctx.Done():
			log.Info("Monitoring scheduler stopped")
			return
		case <-ticker.C:
			m.RunCycle(context.WithoutCancel(ctx), m.now())
		}
	}
}

// RunCycle checks every active rule that is due at now, one after the other.
// A failing rule is logged and keeps its LastCheck so it is retried next cycle.
func (m *Monitor) RunCycle(ctx context.Context, now time.Time) {
	m.cycleMutex.Lock()
	defer m.cycleMutex.Unlock()

	started := time.Now()
	due := m.registry.DueRules(now)
	log.Infof("Monitoring cycle started, %d rule(s) due", len(due))

	failed := 0
	for _, rule := range due {
		if _, err := m.CheckRule(ctx, rule, now); err != nil {
			failed++
			log.WithFields(log.Fields{
				"rule_id": rule.ID,
				"product": rule.ProductName,
			}).Errorf("Rule check failed: %v", err)
			m.countCheck("error")
			continue
		}
		m.registry.MarkChecked(rule.ID, now)
		m.countCheck("ok")
	}

	if m.metrics != nil {
		m.metrics.Cycles.Inc()
		m.metrics.ActiveRules.Set(float64(len(m.registry.ListActiveRules())))
		m.metrics.Series.Set(float64(m.store.Len()))
		m.metrics.CycleDuration.Observe(time.Since(started).Seconds())
	}

	log.Infof("Monitoring cycle finished, %d checked, %d failed", len(due)-failed, failed)
}

// CheckRule fetches the current prices of a rule, records them and emits the alerts
// for moves beyond the rule threshold. All prices are recorded before detection runs.
func (m *Monitor) CheckRule(ctx context.Context, rule types.MonitoringRule, now time.Time) ([]types.Alert, error) {
	fetched, err := m.fetcher.Fetch(ctx, rule.ProductName)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch prices of %s", rule.ProductName)
	}

	observations := make([]types.Observation, 0, len(fetched))
	for _, obs := range fetched {
		if !rule.WatchesPlatform(obs.Platform) {
			log.Debugf("rule %s ignores platform %s", rule.ID, obs.Platform)
			continue
		}
		observations = append(observations, obs)
	}

	for _, obs := range observations {
		m.store.Append(obs.Key(rule.ProductName), types.PriceEntry{
			Price:     obs.Price,
			Timestamp: now,
			Source:    types.SourceAutomated,
		})
	}
	if m.metrics != nil {
		m.metrics.Observations.Add(float64(len(observations)))
	}

	alerts := alert.DetectPriceChanges(rule, observations, m.store, now)
	if len(alerts) == 0 {
		return alerts, nil
	}

	if m.metrics != nil {
		for _, a := range alerts {
			m.metrics.AlertsEmitted.WithLabelValues(string(a.Severity)).Inc()
		}
	}

	if err := m.pipeline.ProcessAlerts(ctx, alerts); err != nil {
		return alerts, err
	}
	return alerts, nil
}

func (m *Monitor) countCheck(result string) {
	if m.metrics != nil {
		m.metrics.RuleChecks.WithLabelValues(result).Inc()
	}
}

// Stats returns the registry summary with the alerts of the last 24 hours
func (m *Monitor) Stats(ctx context.Context) types.Stats {
	stats := m.registry.Stats()
	if m.counter == nil {
		return stats
	}

	count, err := m.counter.CountSince(ctx, m.now().Add(-24*time.Hour))
	if err != nil {
		log.Errorf("Could not count recent alerts: %v", err)
		return stats
	}
	stats.AlertsLast24h = count
	return stats
}

// AnalyzeTrend returns the market trend of a product
func (m *Monitor) AnalyzeTrend(productName string) types.MarketTrend {
	return m.analyzer.AnalyzeTrendAt(productName, m.now())
}

// History returns every recorded series of a product
func (m *Monitor) History(productName string) []types.PriceHistory {
	return m.store.ByProduct(productName)
}

// Registry exposes the rule registry to the command surface
func (m *Monitor) Registry() *rules.Registry {
	return m.registry
}
