package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records pipeline-level measurements through OpenTelemetry,
// exported on the default Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	loadCounter   otelmetric.Int64Counter
	loadDuration  otelmetric.Float64Histogram
	viewRows      otelmetric.Int64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	return newWithReader(serviceName, exporter)
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

func newWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	loadCounter, err := meter.Int64Counter(
		"category.loads",
		otelmetric.WithDescription("Category loads by source and status"),
	)
	if err != nil {
		return nil, err
	}
	loadDuration, err := meter.Float64Histogram(
		"category.load.duration",
		otelmetric.WithDescription("Category load duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	viewRows, err := meter.Int64Histogram(
		"view.rows",
		otelmetric.WithDescription("Rows in a rendered view after filtering"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: provider,
		loadCounter:   loadCounter,
		loadDuration:  loadDuration,
		viewRows:      viewRows,
	}, nil
}

// RecordLoad counts one load. source is "cache" or "provider".
func (o *Observability) RecordLoad(ctx context.Context, source, status string, d time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	if o.loadCounter != nil {
		o.loadCounter.Add(ctx, 1, attrs)
	}
	if o.loadDuration != nil {
		o.loadDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordViewRows(ctx context.Context, rows int) {
	if o.viewRows != nil {
		o.viewRows.Record(ctx, int64(rows))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
