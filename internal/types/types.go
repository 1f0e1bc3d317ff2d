package types

import "time"

// Frequency how often a rule wants fresh prices
type Frequency string

const (
	Hourly Frequency = "hourly"
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// Interval returns the minimum time between two checks, false for unknown frequencies
func (f Frequency) Interval() (time.Duration, bool) {
	switch f {
	case Hourly:
		return time.Hour, true
	case Daily:
		return 24 * time.Hour, true
	case Weekly:
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

// ParseFrequency maps user input onto a known frequency
func ParseFrequency(s string) (Frequency, bool) {
	switch f := Frequency(s); f {
	case Hourly, Daily, Weekly:
		return f, true
	}
	return "", false
}

// MonitoringRule one watched product
type MonitoringRule struct {
	ID             string     `json:"id"`
	ProductName    string     `json:"product_name"`
	Platforms      []string   `json:"platforms"`
	Frequency      Frequency  `json:"frequency"`
	PriceThreshold float64    `json:"price_threshold"` // percent, 5 means +-5%
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	LastCheck      *time.Time `json:"last_check,omitempty"`
}

// WatchesPlatform reports whether observations from platform belong to the rule.
// A rule without platforms watches every platform the fetcher reports.
func (r MonitoringRule) WatchesPlatform(platform string) bool {
	if len(r.Platforms) == 0 {
		return true
	}
	for _, p := range r.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

const SourceAutomated = "automated_monitoring"

// PriceEntry a single observed price
type PriceEntry struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// HistoryKey identifies one price series
type HistoryKey struct {
	ProductName string
	Platform    string
	Seller      string
}

// PriceHistory chronological prices of one seller on one platform
type PriceHistory struct {
	ProductName string       `json:"product_name"`
	Platform    string       `json:"platform"`
	Seller      string       `json:"seller"`
	Prices      []PriceEntry `json:"prices"`
}

func (h PriceHistory) Key() HistoryKey {
	return HistoryKey{ProductName: h.ProductName, Platform: h.Platform, Seller: h.Seller}
}

// Observation a current competitor price as reported by a fetcher
type Observation struct {
	Platform  string    `json:"platform"`
	Seller    string    `json:"seller"`
	Price     float64   `json:"price"`
	SourceURL string    `json:"source_url"`
	CheckedAt time.Time `json:"checked_at"`
}

const UnknownSeller = "Unknown"

// SellerName returns the seller label, "Unknown" when the fetcher did not report one
func (o Observation) SellerName() string {
	if o.Seller == "" {
		return UnknownSeller
	}
	return o.Seller
}

// Key returns the history key of the observation for a product
func (o Observation) Key(productName string) HistoryKey {
	return HistoryKey{ProductName: productName, Platform: o.Platform, Seller: o.SellerName()}
}

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// MarketTrend aggregate statistics of a product, computed on demand
type MarketTrend struct {
	ProductName    string         `json:"product_name"`
	AvgPrice       float64        `json:"avg_price"`
	PriceChange24h float64        `json:"price_change_24h"`
	PriceChange7d  float64        `json:"price_change_7d"`
	PriceChange30d float64        `json:"price_change_30d"`
	Volatility     float64        `json:"volatility"`
	TrendDirection TrendDirection `json:"trend_direction"`
	Opportunities  []string       `json:"opportunities"`
	Simulated      bool           `json:"simulated"`
}

type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const AlertCompetitorPriceChange = "competitor_price_change"

// Alert a significant competitor price move
type Alert struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Severity        Severity  `json:"severity"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
	Actionable      bool      `json:"actionable"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
	ProductID       string    `json:"product_id"`

	ProductName   string  `json:"product_name"`
	Platform      string  `json:"platform"`
	Seller        string  `json:"seller"`
	ChangePercent float64 `json:"change_percent"`
}

// Stats summary of the rule registry
type Stats struct {
	TotalRules       int    `json:"total_rules"`
	ActiveRules      int    `json:"active_rules"`
	Products         int    `json:"products"`
	AlertsLast24h    int    `json:"alerts_last_24h"`
	AverageFrequency string `json:"average_frequency"`
}
