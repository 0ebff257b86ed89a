package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Attribute keys
const (
	attrKind    = "kind"
	attrOutcome = "outcome"
)

// RunMetrics records per-run compile metrics into a private Prometheus
// registry. Batch runs persist them with WriteTextfile for a node exporter
// textfile collector. A nil *RunMetrics records nothing.
type RunMetrics struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry

	RunDuration         metric.Float64Histogram
	RunsTotal           metric.Int64Counter
	RunErrorsTotal      metric.Int64Counter
	GeometryEvaluations metric.Int64Counter
}

// NewRunMetrics creates the meters and registers them with a new registry.
func NewRunMetrics() (*RunMetrics, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("scadc")
	m := &RunMetrics{provider: provider, registry: registry}

	m.RunDuration, err = meter.Float64Histogram(
		"scadc_run_duration_seconds",
		metric.WithDescription("Compile run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300),
	)
	if err != nil {
		return nil, err
	}

	m.RunsTotal, err = meter.Int64Counter(
		"scadc_runs_total",
		metric.WithDescription("Total number of compile runs"),
	)
	if err != nil {
		return nil, err
	}

	m.RunErrorsTotal, err = meter.Int64Counter(
		"scadc_run_errors_total",
		metric.WithDescription("Total number of failed compile runs"),
	)
	if err != nil {
		return nil, err
	}

	m.GeometryEvaluations, err = meter.Int64Counter(
		"scadc_geometry_evaluations_total",
		metric.WithDescription("Total number of full geometry evaluations"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records one finished run. outcome is "ok" or the error class.
func (m *RunMetrics) RecordRun(ctx context.Context, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrOutcome, outcome),
	)
	m.RunDuration.Record(ctx, d.Seconds(), attrs)
	m.RunsTotal.Add(ctx, 1, attrs)
	if outcome != "ok" {
		m.RunErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordGeometryEvaluation counts one full geometry evaluation.
func (m *RunMetrics) RecordGeometryEvaluation(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.GeometryEvaluations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}

// Gatherer exposes the registry the meters report into.
func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the current metrics in the Prometheus text format.
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Shutdown flushes and stops the meter provider.
func (m *RunMetrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
