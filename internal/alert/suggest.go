package alert

import (
	"competitor-price-monitor/internal/types"
	"fmt"
)

// Suggestions returns advice for a competitor price move, most specific first.
// The positioning review is always the last entry.
func Suggestions(changePercent float64, obs types.Observation, productName string) []string {
	var s []string

	if changePercent > 10 {
		s = append(s,
			"competitor raised price — opportunity to hold yours for market share",
			"watch whether other competitors follow the increase",
		)
	}

	if changePercent < -10 {
		s = append(s,
			"competitor cut price significantly",
			"evaluate whether to match or differentiate on value",
			"check whether this is a temporary promotion or a permanent change",
		)
	}

	return append(s, fmt.Sprintf("review positioning of %s on platform %s", productName, obs.Platform))
}
