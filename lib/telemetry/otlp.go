package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OtlpConnConfig points at a collector, grpc is preferred when both endpoints are given.
type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) transport() string {
	if c.GrpcEndpoint != "" {
		return "grpc"
	}
	return "http"
}

func (c OtlpConnConfig) endpoint() string {
	if c.GrpcEndpoint != "" {
		return c.GrpcEndpoint
	}
	return c.HttpEndpoint
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
	// MetricIntervalSeconds is how often metrics are pushed, it defaults to 15.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, cfg Config) (*trace.TracerProvider, error) {
	conn := cfg.Otlp.Traces
	opts := []trace.TracerProviderOption{trace.WithResource(r)}

	if conn.endpoint() != "" {
		ctx, cancel := context.WithTimeout(ctx, time.Second*3)
		defer cancel()

		var exporter trace.SpanExporter
		var err error
		switch conn.transport() {
		case "grpc":
			exporter, err = otlptracegrpc.New(
				ctx,
				otlptracegrpc.WithEndpointURL(conn.GrpcEndpoint),
				otlptracegrpc.WithHeaders(conn.Headers),
			)
		default:
			exporter, err = otlptracehttp.New(
				ctx,
				otlptracehttp.WithEndpointURL(conn.HttpEndpoint),
				otlptracehttp.WithHeaders(conn.Headers),
			)
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exporter))
		slog.Info("trace exporter initialized", "type", conn.transport(), "endpoint", conn.endpoint())
	}

	return trace.NewTracerProvider(opts...), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, cfg Config) (*metric.MeterProvider, error) {
	conn := cfg.Otlp.Metrics
	opts := []metric.Option{metric.WithResource(r)}

	interval := time.Duration(cfg.MetricIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}

	if conn.endpoint() != "" {
		ctx, cancel := context.WithTimeout(ctx, time.Second*3)
		defer cancel()

		var exporter metric.Exporter
		var err error
		switch conn.transport() {
		case "grpc":
			exporter, err = otlpmetricgrpc.New(
				ctx,
				otlpmetricgrpc.WithEndpointURL(conn.GrpcEndpoint),
				otlpmetricgrpc.WithHeaders(conn.Headers),
			)
		default:
			exporter, err = otlpmetrichttp.New(
				ctx,
				otlpmetrichttp.WithEndpointURL(conn.HttpEndpoint),
				otlpmetrichttp.WithHeaders(conn.Headers),
			)
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))))
		slog.Info("metric exporter initialized", "type", conn.transport(), "endpoint", conn.endpoint())
	}

	return metric.NewMeterProvider(opts...), nil
}
