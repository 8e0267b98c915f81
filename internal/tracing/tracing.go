// Package tracing wires OpenTelemetry spans around a turn: one root span per
// message processed, with child spans for each provider call and tool
// execution. Exporting is optional — with no endpoint configured, spans are
// still created and can be inspected via the context, they're just not sent
// anywhere.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "nanorelay"

// Config controls whether and where spans are exported.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; spans are still created as no-ops.
	Endpoint       string
	ServiceVersion string
	Insecure       bool
}

// Tracer wraps an OTel tracer with the handful of span shapes this agent
// needs: one per turn, one per provider call, one per tool execution.
type Tracer struct {
	tracer trace.Tracer
}

// New builds a Tracer and returns a shutdown func to call on process exit.
func New(cfg Config) (*Tracer, func(context.Context) error) {
	if cfg.Endpoint == "" {
		return &Tracer{tracer: otel.Tracer(tracerName)}, func(context.Context) error { return nil }
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return &Tracer{tracer: otel.Tracer(tracerName)}, func(context.Context) error { return nil }
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(tracerName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		res = resource.Default()
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return &Tracer{tracer: provider.Tracer(tracerName)}, provider.Shutdown
}

// StartTurn opens the root span for one inbound message.
func (t *Tracer) StartTurn(ctx context.Context, channel, chatID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "agent.turn", trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("chat_id", chatID),
	))
}

// StartProviderCall opens a child span for one provider/model round trip.
func (t *Tracer) StartProviderCall(ctx context.Context, provider, model string, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("llm.%s", provider), trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
		attribute.Int("llm.iteration", iteration),
	))
}

// StartTool opens a child span for one tool execution.
func (t *Tracer) StartTool(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("tool.%s", name), trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(
		attribute.String("tool.name", name),
	))
}

// End finishes a span, recording err on it if non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
