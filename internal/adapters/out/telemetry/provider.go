// Package telemetry provides OpenTelemetry metrics for the sync engine.
// Instruments are always usable; they only export when a provider is
// configured with an OTLP/HTTP endpoint.
package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`   // OTLP HTTP endpoint, e.g. "http://localhost:4318"
	AuthToken string        `mapstructure:"auth_token"` // Basic auth token (base64 encoded user:pass)
	Interval  time.Duration `mapstructure:"interval"`
}

// NewProvider installs a global meter provider exporting over OTLP/HTTP.
// It is a no-op when telemetry is disabled.
// The returned shutdown function must be called on application exit.
func NewProvider(ctx context.Context, cfg Config, serviceName, version string) (func(context.Context), error) {
	noop := func(context.Context) {}

	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return noop, fmt.Errorf("create resource: %w", err)
	}

	opts, err := exporterOptions(cfg)
	if err != nil {
		return noop, err
	}

	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return noop, fmt.Errorf("create metric exporter: %w", err)
	}

	var readerOpts []metric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, metric.WithInterval(cfg.Interval))
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exp, readerOpts...)),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) { _ = mp.Shutdown(ctx) }, nil
}

func exporterOptions(cfg Config) ([]otlpmetrichttp.Option, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", cfg.Endpoint)
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(u.Host)}
	if cfg.AuthToken != "" {
		opts = append(opts, otlpmetrichttp.WithHeaders(map[string]string{
			"Authorization": "Basic " + cfg.AuthToken,
		}))
	}
	if base := strings.TrimSuffix(u.Path, "/"); base != "" {
		opts = append(opts, otlpmetrichttp.WithURLPath(base+"/v1/metrics"))
	}
	if u.Scheme == "http" {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts, nil
}
