package database

import (
	"database/sql"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SaveMetric stores a counter value; unlabeled counters use empty label key and value
func (db *DB) SaveMetric(metricName, labelKey, labelValue string, value float64) error {
	query := db.rebind(`
	INSERT INTO metrics (metric_name, label_key, label_value, metric_value)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (metric_name, label_key, label_value) DO UPDATE SET metric_value = excluded.metric_value;`)
	_, err := db.conn.Exec(query, metricName, labelKey, labelValue, value)
	if err != nil {
		return errors.Wrap(err, "failed to save metric")
	}
	log.Debugf("Metric saved: %s[%s=%s] = %f", metricName, labelKey, labelValue, value)
	return nil
}

// GetMetric returns an unlabeled counter, 0 when it was never saved
func (db *DB) GetMetric(metricName string) (float64, error) {
	var value float64
	query := db.rebind(`
	SELECT metric_value
	FROM metrics
	WHERE metric_name = ? AND label_key = '' AND label_value = '';`)
	err := db.conn.Get(&value, query, metricName)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debugf("Metric %s not found in the database, defaulting to 0", metricName)
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", metricName)
	}
	return value, nil
}

// GetMetricsWithLabels fetches all labeled values of a metric as label key -> label value -> value
func (db *DB) GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error) {
	query := db.rebind(`
	SELECT label_key, label_value, metric_value
	FROM metrics
	WHERE metric_name = ? AND label_key <> '';`)

	rows, err := db.conn.Queryx(query, metricName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query metrics with labels")
	}
	defer rows.Close()

	metrics := make(map[string]map[string]float64)
	for rows.Next() {
		var labelKey, labelValue string
		var value float64
		if err := rows.Scan(&labelKey, &labelValue, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		if _, exists := metrics[labelKey]; !exists {
			metrics[labelKey] = make(map[string]float64)
		}
		metrics[labelKey][labelValue] = value
	}
	return metrics, rows.Err()
}
