package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
	"sync"
)

const (
	namespace = "competitor"
	subsystem = "price_monitor"
)

// Monitor collects the counters of the monitoring engine
type Monitor struct {
	Cycles        prometheus.Counter
	RuleChecks    *prometheus.CounterVec
	Observations  prometheus.Counter
	AlertsEmitted *prometheus.CounterVec
	ActiveRules   prometheus.Gauge
	Series        prometheus.Gauge
	CycleDuration prometheus.Histogram
	Commands      prometheus.Counter
	Mutex         sync.Mutex
}

// NewMonitor creates the collectors and registers them with reg
func NewMonitor(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "The total number of monitoring cycles run",
		}),
		RuleChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rule_checks_total",
				Help:      "The total number of rule checks by result",
			},
			[]string{"result"},
		),
		Observations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "observations_total",
			Help:      "The total number of competitor prices recorded",
		}),
		AlertsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "alerts_total",
				Help:      "The total number of price change alerts by severity",
			},
			[]string{"severity"},
		),
		ActiveRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_rules",
			Help:      "The current number of active monitoring rules",
		}),
		Series: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "price_series",
			Help:      "The current number of (product, platform, seller) price series",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Time spent in one monitoring cycle",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		Commands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed chat commands",
		}),
	}

	reg.MustRegister(m.Cycles, m.RuleChecks, m.Observations, m.AlertsEmitted, m.ActiveRules, m.Series, m.CycleDuration, m.Commands)
	return m
}

// Store persists metric values between restarts
type Store interface {
	SaveMetric(metricName, labelKey, labelValue string, value float64) error
	GetMetric(metricName string) (float64, error)
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)
}

// Load restores the persisted counters
func (m *Monitor) Load(db Store) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	cycles, _ := db.GetMetric("cycles_total")
	observations, _ := db.GetMetric("observations_total")
	commands, _ := db.GetMetric("commands_processed")
	m.Cycles.Add(cycles)
	m.Observations.Add(observations)
	m.Commands.Add(commands)

	loadLabeled(db, "rule_checks_total", func(_, result string, value float64) {
		m.RuleChecks.WithLabelValues(result).Add(value)
	})
	loadLabeled(db, "alerts_total", func(_, severity string, value float64) {
		m.AlertsEmitted.WithLabelValues(severity).Add(value)
	})

	log.Info("Metrics loaded from database.")
}

func loadLabeled(db Store, metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := db.GetMetricsWithLabels(metricName)
	if err != nil {
		log.Errorf("Failed to load %s: %v", metricName, err)
		return
	}
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

// Save writes the current counter values to db
func (m *Monitor) Save(db Store) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	saveOrLog(db, "cycles_total", "", "", Value(m.Cycles))
	saveOrLog(db, "observations_total", "", "", Value(m.Observations))
	saveOrLog(db, "commands_processed", "", "", Value(m.Commands))
	saveLabeled(db, "rule_checks_total", "result", m.RuleChecks)
	saveLabeled(db, "alerts_total", "severity", m.AlertsEmitted)

	log.Info("Metrics saved to database.")
}

func saveLabeled(db Store, metricName, label string, vec *prometheus.CounterVec) {
	metricChan := make(chan prometheus.Metric, 16)
	go func() {
		vec.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read %s metric: %v", metricName, err)
			continue
		}
		var labelValue string
		for _, l := range metricProto.Label {
			if l.GetName() == label {
				labelValue = l.GetValue()
			}
		}
		saveOrLog(db, metricName, label, labelValue, metricProto.Counter.GetValue())
	}
}

func saveOrLog(db Store, metricName, labelKey, labelValue string, value float64) {
	if err := db.SaveMetric(metricName, labelKey, labelValue, value); err != nil {
		log.Errorf("Failed to save %s: %v", metricName, err)
	}
}

// Value reads the current value of a single counter or gauge
func Value(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
