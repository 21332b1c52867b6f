// Package slogadapters bridges the standard library's log/slog into the
// sniffer's logging interfaces, so applications that already configure slog
// handlers can reuse them for statement sniffing logs.
package slogadapters

import (
	"context"
	"log/slog"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// SlogLogger wraps a *slog.Logger and implements both sniffer.Logger and
// sniffer.ContextualLogger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a SlogLogger on top of the given slog handler.
func NewSlogLogger(handler slog.Handler) *SlogLogger {
	return &SlogLogger{logger: slog.New(handler)}
}

// NewSlogLoggerFromLogger creates a SlogLogger reusing an existing *slog.Logger.
func NewSlogLoggerFromLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Debug implements sniffer.Logger.
func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info implements sniffer.Logger.
func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn implements sniffer.Logger.
func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error implements sniffer.Logger.
func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// DebugContext implements sniffer.ContextualLogger.
func (l *SlogLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext implements sniffer.ContextualLogger.
func (l *SlogLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext implements sniffer.ContextualLogger.
func (l *SlogLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext implements sniffer.ContextualLogger.
func (l *SlogLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// Compile-time checks that SlogLogger implements the sniffer interfaces.
var (
	_ sniffer.Logger           = (*SlogLogger)(nil)
	_ sniffer.ContextualLogger = (*SlogLogger)(nil)
)
