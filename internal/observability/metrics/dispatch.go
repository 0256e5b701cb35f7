package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	dispatchMeterName = "dispatch.service"
)

type DispatchMetrics struct {
	obligationsProcessed metric.Int64Counter
	attemptsProcessed    metric.Int64Counter
	sourceFailures       metric.Int64Counter
	digestDeliveries     metric.Int64Counter
	runDuration          metric.Float64Histogram
}

func NewDispatchMetrics() (*DispatchMetrics, error) {
	meter := otel.Meter(dispatchMeterName)

	obligationsProcessed, err := meter.Int64Counter(
		"dispatch_obligations_total",
		metric.WithDescription("Total number of obligations processed by classification"),
		metric.WithUnit("{obligation}"),
	)
	if err != nil {
		return nil, err
	}

	attemptsProcessed, err := meter.Int64Counter(
		"dispatch_attempts_total",
		metric.WithDescription("Total number of notification attempts by channel and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	sourceFailures, err := meter.Int64Counter(
		"dispatch_source_failures_total",
		metric.WithDescription("Total number of failed obligation source queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	digestDeliveries, err := meter.Int64Counter(
		"dispatch_digest_deliveries_total",
		metric.WithDescription("Total number of admin digest deliveries by outcome"),
		metric.WithUnit("{digest}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"dispatch_run_duration_seconds",
		metric.WithDescription("Dispatch run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
		),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		obligationsProcessed: obligationsProcessed,
		attemptsProcessed:    attemptsProcessed,
		sourceFailures:       sourceFailures,
		digestDeliveries:     digestDeliveries,
		runDuration:          runDuration,
	}, nil
}

func (m *DispatchMetrics) RecordObligationProcessed(ctx context.Context, classification string, simulated bool) {
	m.obligationsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("classification", classification),
		attribute.Bool("simulated", simulated),
	))
}

func (m *DispatchMetrics) RecordAttempt(ctx context.Context, channel, outcome string) {
	m.attemptsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	))
}

func (m *DispatchMetrics) RecordSourceFailure(ctx context.Context) {
	m.sourceFailures.Add(ctx, 1)
}

func (m *DispatchMetrics) RecordDigestDelivery(ctx context.Context, outcome string) {
	m.digestDeliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *DispatchMetrics) RecordRunDuration(ctx context.Context, simulated bool, duration time.Duration) {
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Bool("simulated", simulated),
	))
}
