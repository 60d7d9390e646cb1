package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ExporterKind selects how spans leave the process.
type ExporterKind string

const (
	// ExporterOTLPGRPC exports spans over OTLP gRPC.
	ExporterOTLPGRPC ExporterKind = "otlp-grpc"
	// ExporterOTLPHTTP exports spans over OTLP HTTP.
	ExporterOTLPHTTP ExporterKind = "otlp-http"
	// ExporterNone installs the tracer API without an exporter.
	ExporterNone ExporterKind = "none"
)

// TracingConfig configures the tracing provider.
type TracingConfig struct {
	// ServiceName identifies this client in traces.
	ServiceName string
	// ServiceVersion is attached as a resource attribute.
	ServiceVersion string
	// Exporter selects the span exporter.
	Exporter ExporterKind
	// Endpoint is the OTLP collector address, host:port.
	Endpoint string
	// Insecure disables TLS on the exporter connection.
	Insecure bool
	// SampleRate is the fraction of traces to sample, 0..1. Zero means
	// always sample (the sensible default for a single client connection).
	SampleRate float64
}

// DefaultTracingConfig returns a config suitable for local development.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "realtime-client",
		Exporter:    ExporterNone,
		Endpoint:    "localhost:4317",
		Insecure:    true,
	}
}

// TracingProvider owns the OpenTelemetry tracer used by the connection
// manager.
type TracingProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracingProvider builds and installs a tracer provider.
func NewTracingProvider(ctx context.Context, cfg TracingConfig) (*TracingProvider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "realtime-client"
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	res := resource.NewSchemaless(attrs...)

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate > 0 && cfg.SampleRate < 1 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}

	if cfg.Exporter != ExporterNone && cfg.Exporter != "" {
		exporter, err := newExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second)))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracingProvider{
		provider: provider,
		tracer:   provider.Tracer("github.com/caiogn-dev/realtime-go"),
	}, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (*otlptrace.Exporter, error) {
	switch cfg.Exporter {
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter kind %q", cfg.Exporter)
	}
}

// Tracer returns the tracer to hand to the connection manager.
func (p *TracingProvider) Tracer() trace.Tracer {
	return p.tracer
}

// StartConnectSpan opens a span covering a single transport open attempt.
func (p *TracingProvider) StartConnectSpan(ctx context.Context, kind string, fallbackIndex int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "realtime.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("realtime.transport", kind),
			attribute.Int("realtime.fallback_index", fallbackIndex),
		))
}

// RecordError marks a span as failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes buffered spans.
func (p *TracingProvider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
