package helpers

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `Widget\-Pro \(v2\) 6\.0%`, EscapeMarkdownV2("Widget-Pro (v2) 6.0%"))
	assert.Equal(t, `a\\b`, EscapeMarkdownV2(`a\b`))
}

func TestFormatPriceUS(t *testing.T) {
	assert.Equal(t, "1,299.90", FormatPriceUS(1299.9, false))
	assert.Equal(t, "94.00", FormatPriceUS(94, false))
	assert.Equal(t, "0.500000", FormatPriceUS(0.5, false))
	assert.Equal(t, `1,299\.90`, FormatPriceUS(1299.9, true))
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "-6.0%", FormatPercentage(-6, false))
	assert.Equal(t, "+12.5%", FormatPercentage(12.5, false))
	assert.Equal(t, `\+12\.5%`, FormatPercentage(12.5, true))
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	checked := now.Add(-3 * time.Hour)
	assert.Equal(t, "3 hours ago", FormatAgo(&checked, now))
	assert.Equal(t, "never", FormatAgo(nil, now))
	assert.Equal(t, "2024-01-01 12:00 UTC", FormatDate(now))
}
