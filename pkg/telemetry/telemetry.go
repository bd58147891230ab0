// Package telemetry exposes the pipeline's OpenTelemetry counters. Only the
// metric API is used here; exporter wiring belongs to the process entry
// point, and without it the global provider is a no-op.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/2gfhixs/OGREE"

// Attribute keys shared across instruments.
var (
	AttrSourceSystem = attribute.Key("ogree.source_system")
	AttrTier         = attribute.Key("ogree.tier")
)

// Metrics holds the pipeline counters.
type Metrics struct {
	eventsProcessed metric.Int64Counter
	eventsInserted  metric.Int64Counter
	alertsEmitted   metric.Int64Counter
	fetchRetries    metric.Int64Counter
}

// New registers the pipeline instruments on the global meter provider.
func New() *Metrics {
	meter := otel.Meter(meterName)
	m := &Metrics{}

	var err error
	if m.eventsProcessed, err = meter.Int64Counter("ogree.events.processed",
		metric.WithDescription("Raw records seen by an adapter")); err != nil {
		slog.Warn("telemetry: events.processed counter unavailable", "error", err)
	}
	if m.eventsInserted, err = meter.Int64Counter("ogree.events.inserted",
		metric.WithDescription("Raw events newly appended to the event log")); err != nil {
		slog.Warn("telemetry: events.inserted counter unavailable", "error", err)
	}
	if m.alertsEmitted, err = meter.Int64Counter("ogree.alerts.emitted",
		metric.WithDescription("Alerts newly inserted")); err != nil {
		slog.Warn("telemetry: alerts.emitted counter unavailable", "error", err)
	}
	if m.fetchRetries, err = meter.Int64Counter("ogree.fetch.retries",
		metric.WithDescription("HTTP fetch retry attempts")); err != nil {
		slog.Warn("telemetry: fetch.retries counter unavailable", "error", err)
	}
	return m
}

// RecordIngest records one adapter batch.
func (m *Metrics) RecordIngest(ctx context.Context, sourceSystem string, processed, inserted int) {
	attrs := metric.WithAttributes(AttrSourceSystem.String(sourceSystem))
	if m.eventsProcessed != nil {
		m.eventsProcessed.Add(ctx, int64(processed), attrs)
	}
	if m.eventsInserted != nil {
		m.eventsInserted.Add(ctx, int64(inserted), attrs)
	}
}

// RecordAlert records one emitted alert.
func (m *Metrics) RecordAlert(ctx context.Context, tier string) {
	if m.alertsEmitted != nil {
		m.alertsEmitted.Add(ctx, 1, metric.WithAttributes(AttrTier.String(tier)))
	}
}

// RecordFetchRetry records one HTTP retry attempt.
func (m *Metrics) RecordFetchRetry(ctx context.Context) {
	if m.fetchRetries != nil {
		m.fetchRetries.Add(ctx, 1)
	}
}
