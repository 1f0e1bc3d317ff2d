package database

import (
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleAlert(id, product string, at time.Time) types.Alert {
	return types.Alert{
		ID:              id,
		Type:            types.AlertCompetitorPriceChange,
		Severity:        types.SeverityHigh,
		Title:           "Competitor price change: " + product,
		Message:         "SellerA decreased the price by 25.0%",
		Timestamp:       at,
		Actionable:      true,
		SuggestedAction: "competitor cut price significantly",
		ProductID:       "rule-1",
		ProductName:     product,
		Platform:        "P1",
		Seller:          "SellerA",
		ChangePercent:   -25,
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	assert.Error(t, err)
}

func TestAlertArchive(t *testing.T) {
	archive := NewAlertArchive(openMemory(t))
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, archive.Dispatch(ctx, sampleAlert("a1", "Widget", now.Add(-48*time.Hour))))
	require.NoError(t, archive.Dispatch(ctx, sampleAlert("a2", "Widget", now.Add(-time.Hour))))
	require.NoError(t, archive.Dispatch(ctx, sampleAlert("a3", "Gadget", now.Add(-24*time.Hour))))

	count, err := archive.CountSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	recent, err := archive.Recent(ctx, "Widget", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, sampleAlert("a2", "Widget", now.Add(-time.Hour)), recent[0])
	assert.Equal(t, "a1", recent[1].ID)

	all, err := archive.Recent(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	removed, err := archive.DeleteBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestArchiveRejectsDuplicateIDs(t *testing.T) {
	archive := NewAlertArchive(openMemory(t))
	a := sampleAlert("dup", "Widget", time.Now())
	require.NoError(t, archive.Dispatch(context.Background(), a))
	assert.Error(t, archive.Dispatch(context.Background(), a))
}

func TestMetricPersistence(t *testing.T) {
	db := openMemory(t)

	v, err := db.GetMetric("cycles_total")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	require.NoError(t, db.SaveMetric("cycles_total", "", "", 3))
	require.NoError(t, db.SaveMetric("cycles_total", "", "", 7))
	require.NoError(t, db.SaveMetric("alerts_total", "severity", "high", 2))
	require.NoError(t, db.SaveMetric("alerts_total", "severity", "medium", 5))

	v, err = db.GetMetric("cycles_total")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	labeled, err := db.GetMetricsWithLabels("alerts_total")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		"severity": {"high": 2, "medium": 5},
	}, labeled)

	labeled, err = db.GetMetricsWithLabels("cycles_total")
	require.NoError(t, err)
	assert.Empty(t, labeled)
}
