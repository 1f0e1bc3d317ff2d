package database

import (
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

type alertRow struct {
	ID              string  `db:"id"`
	RuleID          string  `db:"rule_id"`
	AlertType       string  `db:"alert_type"`
	Severity        string  `db:"severity"`
	Title           string  `db:"title"`
	Message         string  `db:"message"`
	ProductName     string  `db:"product_name"`
	Platform        string  `db:"platform"`
	Seller          string  `db:"seller"`
	ChangePercent   float64 `db:"change_percent"`
	Actionable      bool    `db:"actionable"`
	SuggestedAction string  `db:"suggested_action"`
	CreatedAt       int64   `db:"created_at"`
}

func (r alertRow) alert() types.Alert {
	return types.Alert{
		ID:              r.ID,
		Type:            r.AlertType,
		Severity:        types.Severity(r.Severity),
		Title:           r.Title,
		Message:         r.Message,
		Timestamp:       time.UnixMilli(r.CreatedAt).UTC(),
		Actionable:      r.Actionable,
		SuggestedAction: r.SuggestedAction,
		ProductID:       r.RuleID,
		ProductName:     r.ProductName,
		Platform:        r.Platform,
		Seller:          r.Seller,
		ChangePercent:   r.ChangePercent,
	}
}

// AlertArchive keeps every dispatched alert
type AlertArchive struct {
	db *DB
}

func NewAlertArchive(db *DB) *AlertArchive {
	return &AlertArchive{db: db}
}

// Dispatch saves an alert to the archive
func (a *AlertArchive) Dispatch(ctx context.Context, alert types.Alert) error {
	query := a.db.rebind(`
	INSERT INTO alerts (id, rule_id, alert_type, severity, title, message, product_name, platform, seller,
		change_percent, actionable, suggested_action, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)

	_, err := a.db.conn.ExecContext(ctx, query,
		alert.ID, alert.ProductID, alert.Type, string(alert.Severity), alert.Title, alert.Message,
		alert.ProductName, alert.Platform, alert.Seller, alert.ChangePercent, alert.Actionable,
		alert.SuggestedAction, alert.Timestamp.UnixMilli())
	if err != nil {
		return errors.Wrap(err, "failed to insert alert")
	}

	log.Debugf("Alert archived: %s %s %s", alert.ID, alert.ProductName, alert.Severity)
	return nil
}

// CountSince counts the alerts created at or after since
func (a *AlertArchive) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := a.db.rebind(`SELECT COUNT(*) FROM alerts WHERE created_at >= ?;`)
	if err := a.db.conn.GetContext(ctx, &count, query, since.UnixMilli()); err != nil {
		return 0, errors.Wrap(err, "failed to count alerts")
	}
	return count, nil
}

// Recent returns the newest alerts of a product, newest first; an empty product matches all
func (a *AlertArchive) Recent(ctx context.Context, productName string, limit int) ([]types.Alert, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []alertRow
	var err error
	if productName == "" {
		query := a.db.rebind(`SELECT * FROM alerts ORDER BY created_at DESC, id LIMIT ?;`)
		err = a.db.conn.SelectContext(ctx, &rows, query, limit)
	} else {
		query := a.db.rebind(`SELECT * FROM alerts WHERE product_name = ? ORDER BY created_at DESC, id LIMIT ?;`)
		err = a.db.conn.SelectContext(ctx, &rows, query, productName, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alerts")
	}

	alerts := make([]types.Alert, 0, len(rows))
	for _, r := range rows {
		alerts = append(alerts, r.alert())
	}
	return alerts, nil
}

// DeleteBefore removes alerts older than before and returns how many were removed
func (a *AlertArchive) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	query := a.db.rebind(`DELETE FROM alerts WHERE created_at < ?;`)
	res, err := a.db.conn.ExecContext(ctx, query, before.UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete alerts")
	}
	return res.RowsAffected()
}
