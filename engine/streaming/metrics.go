package streaming

import (
	"context"
	"fmt"

	monitoringmetrics "github.com/compozy/contentkit/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics provides instrumentation for stream normalization
type Metrics struct {
	eventsTotal  metric.Int64Counter
	droppedTotal metric.Int64Counter
}

// NewMetrics initializes stream metrics using the provided meter
func NewMetrics(_ context.Context, meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	if meter == nil {
		return m, nil
	}
	defs := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.eventsTotal, "events_total", "Total normalized stream events by kind"},
		{&m.droppedTotal, "dropped_total", "Total stream payloads dropped by reason"},
	}
	for _, def := range defs {
		counter, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("stream", def.name),
			metric.WithDescription(def.description),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create stream %s counter: %w", def.name, err)
		}
		*def.target = counter
	}
	return m, nil
}

func (m *Metrics) recordEvent(ctx context.Context, kind EventKind) {
	if m == nil || m.eventsTotal == nil {
		return
	}
	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

func (m *Metrics) recordDropped(ctx context.Context, reason string) {
	if m == nil || m.droppedTotal == nil {
		return
	}
	m.droppedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
