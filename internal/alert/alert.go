package alert

import (
	"competitor-price-monitor/internal/types"
	"fmt"
	"github.com/google/uuid"
	"math"
	"time"
)

const (
	highSeverityPercent = 15.0
	actionablePercent   = 20.0
)

// HistoryLookup gives read access to stored price series
type HistoryLookup interface {
	Get(key types.HistoryKey) (types.PriceHistory, bool)
}

// DetectPriceChanges compares every observation with the price stored just before it
// and returns an alert for each move of at least the rule threshold.
// The histories must already contain the observations as their last entries.
func DetectPriceChanges(rule types.MonitoringRule, observations []types.Observation, histories HistoryLookup, now time.Time) []types.Alert {
	var alerts []types.Alert

	for _, obs := range observations {
		h, exists := histories.Get(obs.Key(rule.ProductName))
		if !exists || len(h.Prices) < 2 {
			continue
		}

		previousPrice := h.Prices[len(h.Prices)-2].Price
		if previousPrice == 0 {
			continue
		}

		changePercent := (obs.Price - previousPrice) / previousPrice * 100
		if math.Abs(changePercent) < rule.PriceThreshold {
			continue
		}

		alerts = append(alerts, newPriceChangeAlert(rule, obs, changePercent, now))
	}

	return alerts
}

func newPriceChangeAlert(rule types.MonitoringRule, obs types.Observation, changePercent float64, now time.Time) types.Alert {
	abs := math.Abs(changePercent)

	severity := types.SeverityMedium
	if abs > highSeverityPercent {
		severity = types.SeverityHigh
	}

	verb := "increased"
	if changePercent < 0 {
		verb = "decreased"
	}

	var suggested string
	if suggestions := Suggestions(changePercent, obs, rule.ProductName); len(suggestions) > 0 {
		suggested = suggestions[0]
	}

	return types.Alert{
		ID:              uuid.NewString(),
		Type:            types.AlertCompetitorPriceChange,
		Severity:        severity,
		Title:           fmt.Sprintf("Competitor price change: %s", rule.ProductName),
		Message:         fmt.Sprintf("%s %s the price by %.1f%%", obs.SellerName(), verb, abs),
		Timestamp:       now,
		Actionable:      abs > actionablePercent,
		SuggestedAction: suggested,
		ProductID:       rule.ID,
		ProductName:     rule.ProductName,
		Platform:        obs.Platform,
		Seller:          obs.SellerName(),
		ChangePercent:   changePercent,
	}
}
