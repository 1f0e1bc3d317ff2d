package notify

import (
	"competitor-price-monitor/internal/alert"
	"competitor-price-monitor/internal/types"
	"context"
	"fmt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strings"
)

// Fanout delivers every alert to all channels
type Fanout struct {
	channels []alert.Dispatcher
}

// NewFanout skips nil channels
func NewFanout(channels ...alert.Dispatcher) *Fanout {
	f := &Fanout{}
	for _, c := range channels {
		if c != nil {
			f.channels = append(f.channels, c)
		}
	}
	return f
}

// Add registers one more channel
func (f *Fanout) Add(c alert.Dispatcher) {
	if c != nil {
		f.channels = append(f.channels, c)
	}
}

// Len returns the number of channels
func (f *Fanout) Len() int {
	return len(f.channels)
}

// Dispatch tries every channel and returns the first failure
func (f *Fanout) Dispatch(ctx context.Context, a types.Alert) error {
	var first error
	for i, c := range f.channels {
		if err := c.Dispatch(ctx, a); err != nil {
			log.Errorf("notification channel %d failed for alert %s: %v", i, a.ID, err)
			if first == nil {
				first = errors.Wrapf(err, "channel %d", i)
			}
		}
	}
	return first
}

// FormatText renders an alert as plain text
func FormatText(a types.Alert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(string(a.Severity)), a.Title))
	b.WriteString(a.Message)
	if a.Platform != "" {
		b.WriteString(fmt.Sprintf(" (%s)", a.Platform))
	}
	if a.SuggestedAction != "" {
		b.WriteString("\n-> " + a.SuggestedAction)
	}
	b.WriteString("\n" + a.Timestamp.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}
