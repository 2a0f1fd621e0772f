package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the sync engine's instruments.
type Metrics struct {
	// Page refresh
	RefreshTotal    metric.Int64Counter
	RefreshSkipped  metric.Int64Counter
	RefreshFailed   metric.Int64Counter
	PublishedPages  metric.Int64Gauge
	InvalidPages    metric.Int64Counter
	RefreshDuration metric.Float64Histogram

	// Route reconciliation
	RouteMutations metric.Int64Counter // attrs: kind, outcome

	// File sync
	FileOps metric.Int64Counter // attrs: op, outcome

	// Events
	EventsProcessed metric.Int64Counter
	EventsDropped   metric.Int64Counter
}

// NewMetrics creates every instrument from the global meter provider.
// Instruments are noop until a provider is installed.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("neppage")
	m := &Metrics{}
	var err error

	if m.RefreshTotal, err = meter.Int64Counter("neppage.pages.refresh.total",
		metric.WithDescription("Page refresh cycles that published a new set")); err != nil {
		return nil, err
	}
	if m.RefreshSkipped, err = meter.Int64Counter("neppage.pages.refresh.skipped",
		metric.WithDescription("Page refresh cycles answered not modified")); err != nil {
		return nil, err
	}
	if m.RefreshFailed, err = meter.Int64Counter("neppage.pages.refresh.failed",
		metric.WithDescription("Page refresh cycles that failed to fetch")); err != nil {
		return nil, err
	}
	if m.PublishedPages, err = meter.Int64Gauge("neppage.pages.published",
		metric.WithDescription("Tenants in the published set")); err != nil {
		return nil, err
	}
	if m.InvalidPages, err = meter.Int64Counter("neppage.pages.invalid",
		metric.WithDescription("Tenant records dropped by validation")); err != nil {
		return nil, err
	}
	if m.RefreshDuration, err = meter.Float64Histogram("neppage.pages.refresh.duration_seconds",
		metric.WithDescription("Page refresh duration in seconds, reconciliation included"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.5, 1, 5, 10, 30)); err != nil {
		return nil, err
	}
	if m.RouteMutations, err = meter.Int64Counter("neppage.routes.mutations",
		metric.WithDescription("Route table mutations issued")); err != nil {
		return nil, err
	}
	if m.FileOps, err = meter.Int64Counter("neppage.files.ops",
		metric.WithDescription("File operations processed")); err != nil {
		return nil, err
	}
	if m.EventsProcessed, err = meter.Int64Counter("neppage.events.processed",
		metric.WithDescription("Total events processed")); err != nil {
		return nil, err
	}
	if m.EventsDropped, err = meter.Int64Counter("neppage.events.dropped",
		metric.WithDescription("Total events dropped")); err != nil {
		return nil, err
	}

	return m, nil
}
