package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// TracingCollector implements sniffer.TracingCollector using the OpenTelemetry tracing API.
// Every executed statement becomes one span, and the span context propagates to the
// database driver so driver-level spans nest underneath.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a tracing collector on the given tracer. The tracer
// should come from your OpenTelemetry TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan creates an OpenTelemetry span with the given name and attributes.
// It returns a new context carrying the span and a SpanContext wrapper for it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, sniffer.SpanContext) {
	spanOptions := make([]trace.SpanStartOption, 0, len(attrs))
	for key, value := range attrs {
		spanOptions = append(spanOptions, trace.WithAttributes(attribute.String(key, value)))
	}

	spanCtx, span := t.tracer.Start(ctx, name, spanOptions...)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan completes an OpenTelemetry span with the given status and final attributes.
func (t *TracingCollector) FinishSpan(spanCtx sniffer.SpanContext, status string, attrs map[string]string) {
	if otelSpanCtx, ok := spanCtx.(*OTelSpanContext); ok {
		for key, value := range attrs {
			otelSpanCtx.span.SetAttributes(attribute.String(key, value))
		}

		otelSpanCtx.setSpanStatus(status)

		otelSpanCtx.span.End()
	}
}

// Ensure TracingCollector implements sniffer.TracingCollector.
var _ sniffer.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements sniffer.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus sets the OpenTelemetry span status based on the provided status string.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds a string attribute to the OpenTelemetry span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus maps the generic status strings emitted by the statement wrappers
// to OpenTelemetry status codes and descriptions.
func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case "ok", "success":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed":
		s.span.SetStatus(codes.Error, "Statement failed")
	case "cancelled", "canceled":
		s.span.SetStatus(codes.Error, "Statement cancelled")
	case "timeout":
		s.span.SetStatus(codes.Error, "Statement timed out")
	case "skipped":
		// The statement was handed back to database/sql unexecuted and will be
		// retried through the prepared path, which gets its own span.
		s.span.SetAttributes(attribute.String("status", status))
	default:
		// Unknown status strings are recorded as a span attribute.
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// Ensure OTelSpanContext implements sniffer.SpanContext.
var _ sniffer.SpanContext = (*OTelSpanContext)(nil)
