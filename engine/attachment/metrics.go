package attachment

import (
	"context"
	"fmt"

	monitoringmetrics "github.com/compozy/contentkit/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts classification outcomes.
type Metrics struct {
	classifiedTotal metric.Int64Counter
}

// NewMetrics registers the attachment instruments on meter. A nil meter
// yields a Metrics whose methods are no-ops.
func NewMetrics(_ context.Context, meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	if meter == nil {
		return m, nil
	}
	counter, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("attachment", "classified_total"),
		metric.WithDescription("Total files classified by outcome kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment classified counter: %w", err)
	}
	m.classifiedTotal = counter
	return m, nil
}

// RecordClassified increments the counter for one outcome.
func (m *Metrics) RecordClassified(ctx context.Context, res Result) {
	if m == nil || m.classifiedTotal == nil || res == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("kind", string(res.Kind()))}
	if u, ok := res.(*UnsupportedFile); ok && u.Err != nil {
		attrs = append(attrs, attribute.String("code", string(u.Err.Code())))
	}
	m.classifiedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
