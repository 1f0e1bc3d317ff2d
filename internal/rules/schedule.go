package rules

import (
	"competitor-price-monitor/internal/types"
	"time"
)

// IsDue reports whether a rule needs a check at now.
// Never checked rules are always due, unknown frequencies never are.
func IsDue(rule types.MonitoringRule, now time.Time) bool {
	if rule.LastCheck == nil {
		return true
	}

	interval, ok := rule.Frequency.Interval()
	if !ok {
		return false
	}
	return now.Sub(*rule.LastCheck) > interval
}

// DueRules returns the active rules that are due at now, in creation order
func (r *Registry) DueRules(now time.Time) []types.MonitoringRule {
	active := r.ListActiveRules()
	due := active[:0]
	for _, rule := range active {
		if IsDue(rule, now) {
			due = append(due, rule)
		}
	}
	return due
}
