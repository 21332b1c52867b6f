package sniffer

// Option defines a functional option for configuring a Tracker.
type Option func(*Tracker) error

// WithLogger configures a logger for statement recording and spy lifecycle
// events. Without a logger the Tracker stays silent.
func WithLogger(logger Logger) Option {
	return func(t *Tracker) error {
		if logger == nil {
			return ErrNilLogger
		}

		t.logger = logger

		return nil
	}
}

// WithMetrics configures a metrics collector counting recorded statements.
// Without a collector no metrics are emitted.
func WithMetrics(collector MetricsCollector) Option {
	return func(t *Tracker) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		t.metrics = collector

		return nil
	}
}
