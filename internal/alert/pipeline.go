package alert

import (
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Dispatcher delivers an alert to a notification channel
type Dispatcher interface {
	Dispatch(ctx context.Context, a types.Alert) error
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(ctx context.Context, a types.Alert) error

func (f DispatcherFunc) Dispatch(ctx context.Context, a types.Alert) error {
	return f(ctx, a)
}

// Pipeline logs and dispatches alerts in order
type Pipeline struct {
	dispatcher Dispatcher
	logger     log.FieldLogger
}

// NewPipeline creates a pipeline writing to the standard logrus logger
func NewPipeline(d Dispatcher) *Pipeline {
	return &Pipeline{dispatcher: d, logger: log.StandardLogger()}
}

// WithLogger replaces the logger used for alert records
func (p *Pipeline) WithLogger(l log.FieldLogger) *Pipeline {
	p.logger = l
	return p
}

// ProcessAlerts logs each alert and hands it to the dispatcher.
// Dispatch errors are not swallowed: the first one stops the batch and is returned.
func (p *Pipeline) ProcessAlerts(ctx context.Context, alerts []types.Alert) error {
	for _, a := range alerts {
		p.logger.WithFields(log.Fields{
			"alertId":   a.ID,
			"type":      a.Type,
			"severity":  a.Severity,
			"productId": a.ProductID,
		}).Info("competitor price alert")

		if p.dispatcher == nil {
			continue
		}
		if err := p.dispatcher.Dispatch(ctx, a); err != nil {
			return errors.Wrapf(err, "could not dispatch alert %s", a.ID)
		}
	}
	return nil
}
