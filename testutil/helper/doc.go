// Package helper provides testing utilities for the statement sniffer test suites.
//
// This package contains shared testing infrastructure including a custom log
// handler for capturing and validating log output during tests, a metrics
// collector spy for validating emitted metrics, a tracing collector spy for
// validating emitted spans, and helpers for recording statements from the
// calling or a separate execution context.
package helper
