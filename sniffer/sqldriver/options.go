package sqldriver

import (
	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// Option defines a functional option for configuring a wrapped driver.
type Option func(*config) error

// WithTracker directs statement recording to the given Tracker instead of the
// process-wide default.
func WithTracker(tracker *sniffer.Tracker) Option {
	return func(cfg *config) error {
		if tracker == nil {
			return sniffer.ErrNilTracker
		}

		cfg.tracker = tracker

		return nil
	}
}

// WithLogger configures a logger for executed-statement debug logs and
// execution failures. Without a logger the wrapper stays silent.
func WithLogger(logger sniffer.Logger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return sniffer.ErrNilLogger
		}

		cfg.logger = logger

		return nil
	}
}

// WithContextualLogger configures a context-aware logger. When both loggers are
// configured, the contextual one wins, so log entries can carry request
// correlation from the statement's context.
func WithContextualLogger(logger sniffer.ContextualLogger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return sniffer.ErrNilLogger
		}

		cfg.contextualLogger = logger

		return nil
	}
}

// WithMetrics configures a metrics collector for statement counts, durations
// and error counts. Collectors implementing ContextualMetricsCollector receive
// the statement's context.
func WithMetrics(collector sniffer.MetricsCollector) Option {
	return func(cfg *config) error {
		if collector == nil {
			return sniffer.ErrNilMetricsCollector
		}

		cfg.metrics = collector

		return nil
	}
}

// WithTracing configures a tracing collector. Each executed statement becomes
// one span carrying the statement text, the operation and the outcome, and the
// span's context propagates to the underlying driver.
func WithTracing(collector sniffer.TracingCollector) Option {
	return func(cfg *config) error {
		if collector == nil {
			return sniffer.ErrNilTracingCollector
		}

		cfg.tracing = collector

		return nil
	}
}
