package sniffer

import (
	"context"
	"time"
)

// Logger defines a simple logging interface that can be implemented by any logging library.
// This allows the sniffer to log statement activity and lifecycle events without forcing
// a specific logging dependency on users.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector defines a metrics collection interface that can be implemented by any
// metrics library. This allows the sniffer to emit metrics without forcing a specific
// metrics dependency on users.
// Implementations should handle counters (IncrementCounter), durations (RecordDuration),
// and values (RecordValue).
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
// Implementations can use the context to correlate metrics with the request that
// executed the statements, for example via trace IDs carried in the context.
type ContextualMetricsCollector interface {
	MetricsCollector

	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// ContextualLogger extends Logger with context-aware logging methods.
// Implementations can use the context to correlate log entries with the request that
// executed the statements, for example via trace IDs carried in the context.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// SpanContext represents an active tracing span that can be finished and updated
// with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector defines a tracing interface that can be implemented by any tracing
// backend (OpenTelemetry, Jaeger, Zipkin). It follows the same dependency-free pattern
// as MetricsCollector: the statement wrappers emit one span per executed statement
// through this interface without forcing a tracing dependency on users.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}
