// Package oteladapters provides OpenTelemetry adapters for the sniffer observability
// interfaces. With these adapters, statement logs correlate with active traces, statement
// metrics land in OpenTelemetry instruments and statement spans join the surrounding
// trace, without implementing the interfaces yourself.
package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// SlogBridgeLogger implements sniffer.ContextualLogger using the OpenTelemetry slog bridge.
// This is the recommended implementation: statement logs flow through Go's standard
// log/slog package and carry trace and span IDs from the statement's context.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a contextual logger on the OpenTelemetry slog bridge,
// using the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithHandler creates a contextual logger on the given slog.Handler.
// The handler is used as-is, without OpenTelemetry trace correlation; use
// NewSlogBridgeLogger for correlated logs.
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

// DebugContext logs a debug message with context.
func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// Ensure SlogBridgeLogger implements sniffer.ContextualLogger.
var _ sniffer.ContextualLogger = (*SlogBridgeLogger)(nil)

// OTelLogger implements sniffer.ContextualLogger using the OpenTelemetry logging API
// directly. Use this for direct control over the emitted log records; most users are
// better served by SlogBridgeLogger.
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates a contextual logger on the OpenTelemetry logging API.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

// DebugContext logs a debug message with context.
func (l *OTelLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityDebug, msg, args...)
}

// InfoContext logs an info message with context.
func (l *OTelLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityInfo, msg, args...)
}

// WarnContext logs a warning message with context.
func (l *OTelLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityWarn, msg, args...)
}

// ErrorContext logs an error message with context.
func (l *OTelLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityError, msg, args...)
}

// emit builds and emits one OpenTelemetry log record. Args are slog-style
// key-value pairs; a trailing key without a value is dropped, as are keys
// that are not strings.
func (l *OTelLogger) emit(ctx context.Context, severity log.Severity, msg string, args ...any) {
	record := log.Record{}
	record.SetSeverity(severity)
	record.SetBody(log.StringValue(msg))

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		record.AddAttributes(log.String(key, stringValue(args[i+1])))
	}

	l.logger.Emit(ctx, record)
}

// stringValue converts any attribute value to a string for OpenTelemetry attributes.
func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return slog.AnyValue(v).String()
}

// Ensure OTelLogger implements sniffer.ContextualLogger.
var _ sniffer.ContextualLogger = (*OTelLogger)(nil)
