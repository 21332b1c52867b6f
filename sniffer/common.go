package sniffer

import (
	"github.com/cockroachdb/errors"
)

// Statements is an ordered list of recorded SQL statement texts.
type Statements []string

var (
	// ErrNilTracker occurs when an operation needs a Tracker and none was supplied.
	ErrNilTracker = errors.New("tracker must not be nil")

	// ErrNilSpy occurs when an operation needs a Spy and none was supplied.
	ErrNilSpy = errors.New("spy must not be nil")

	// ErrNilWork occurs when a nil work function is passed to one of the execution wrappers.
	ErrNilWork = errors.New("work function must not be nil")

	// ErrNilLogger occurs when a nil Logger is passed to WithLogger.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrNilMetricsCollector occurs when a nil MetricsCollector is passed to WithMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrNilTracingCollector occurs when a nil TracingCollector is passed to WithTracing.
	ErrNilTracingCollector = errors.New("tracing collector must not be nil")
)
