package pgxtracer

import (
	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// Option configures a Tracer during New.
type Option func(*config) error

// WithTracker makes the Tracer record statements on the given Tracker instead
// of the process-wide default one.
func WithTracker(tracker *sniffer.Tracker) Option {
	return func(cfg *config) error {
		if tracker == nil {
			return sniffer.ErrNilTracker
		}

		cfg.tracker = tracker

		return nil
	}
}

// WithLogger supplies a logger for statement execution logs.
func WithLogger(logger sniffer.Logger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return sniffer.ErrNilLogger
		}

		cfg.logger = logger

		return nil
	}
}

// WithContextualLogger supplies a context-aware logger for statement execution
// logs. It takes precedence over a logger supplied with WithLogger.
func WithContextualLogger(logger sniffer.ContextualLogger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return sniffer.ErrNilLogger
		}

		cfg.contextualLogger = logger

		return nil
	}
}

// WithMetrics supplies a collector for statement duration and outcome metrics.
func WithMetrics(collector sniffer.MetricsCollector) Option {
	return func(cfg *config) error {
		if collector == nil {
			return sniffer.ErrNilMetricsCollector
		}

		cfg.metrics = collector

		return nil
	}
}

// WithTracing supplies a tracing collector. Each traced query becomes one span
// and each batch becomes one span covering all of its statements.
func WithTracing(collector sniffer.TracingCollector) Option {
	return func(cfg *config) error {
		if collector == nil {
			return sniffer.ErrNilTracingCollector
		}

		cfg.tracing = collector

		return nil
	}
}
