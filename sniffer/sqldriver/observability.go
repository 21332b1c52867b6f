package sqldriver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// observeStatement records the executed statement with the tracker, then logs
// and measures it. Recording happens synchronously on the executing goroutine
// before control returns to database/sql, so per-context counts attribute to
// the goroutine that ran the statement. Failed statements count too: they were
// sent to the database.
func (cfg *config) observeStatement(ctx context.Context, operation, query string, duration time.Duration, execErr error) {
	cfg.tracker.Record(query)

	if execErr != nil {
		cfg.logStatementFailed(ctx, operation, query, duration, execErr)
		cfg.recordStatementMetrics(ctx, operation, statusError, duration)

		return
	}

	cfg.logStatementExecuted(ctx, operation, query, duration)
	cfg.recordStatementMetrics(ctx, operation, statusSuccess, duration)
}

func (cfg *config) logStatementExecuted(ctx context.Context, operation, query string, duration time.Duration) {
	if cfg.contextualLogger != nil {
		cfg.contextualLogger.DebugContext(ctx, logMsgStatementExecuted,
			logAttrOperation, operation,
			logAttrStatement, query,
			logAttrDurationMS, toMilliseconds(duration))

		return
	}

	if cfg.logger != nil {
		cfg.logger.Debug(logMsgStatementExecuted,
			logAttrOperation, operation,
			logAttrStatement, query,
			logAttrDurationMS, toMilliseconds(duration))
	}
}

func (cfg *config) logStatementFailed(ctx context.Context, operation, query string, duration time.Duration, execErr error) {
	if cfg.contextualLogger != nil {
		cfg.contextualLogger.ErrorContext(ctx, logMsgStatementFailed,
			logAttrOperation, operation,
			logAttrStatement, query,
			logAttrDurationMS, toMilliseconds(duration),
			logAttrError, execErr.Error())

		return
	}

	if cfg.logger != nil {
		cfg.logger.Error(logMsgStatementFailed,
			logAttrOperation, operation,
			logAttrStatement, query,
			logAttrDurationMS, toMilliseconds(duration),
			logAttrError, execErr.Error())
	}
}

// startStatementSpan starts a span around one statement execution if a tracing
// collector is configured. The returned context carries the span and is the one
// handed to the underlying driver.
func (cfg *config) startStatementSpan(ctx context.Context, operation, query string) (context.Context, sniffer.SpanContext) {
	if cfg.tracing == nil {
		return ctx, nil
	}

	return cfg.tracing.StartSpan(ctx, spanNameStatement, map[string]string{
		logAttrOperation: operation,
		logAttrStatement: query,
	})
}

// finishStatementSpan finishes a statement span with the execution outcome.
func (cfg *config) finishStatementSpan(span sniffer.SpanContext, duration time.Duration, execErr error) {
	if cfg.tracing == nil || span == nil {
		return
	}

	attrs := map[string]string{
		logAttrDurationMS: fmt.Sprintf("%.3f", toMilliseconds(duration)),
	}

	status := statusSuccess
	if execErr != nil {
		status = statusError
		attrs[logAttrError] = execErr.Error()
	}

	cfg.tracing.FinishSpan(span, status, attrs)
}

// abandonStatementSpan finishes the span of a statement the underlying driver
// refused with ErrSkip; database/sql retries that statement on the prepared
// path, where it gets a fresh span.
func (cfg *config) abandonStatementSpan(span sniffer.SpanContext) {
	if cfg.tracing == nil || span == nil {
		return
	}

	cfg.tracing.FinishSpan(span, statusSkipped, nil)
}

// recordStatementMetrics prefers the context-aware collector interface when the
// configured collector supports it.
func (cfg *config) recordStatementMetrics(ctx context.Context, operation, status string, duration time.Duration) {
	if cfg.metrics == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelStatus:    status,
	}

	if contextual, ok := cfg.metrics.(sniffer.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricStatementDuration, duration, labels)
		contextual.IncrementCounterContext(ctx, metricStatementsExecuted, labels)

		if status == statusError {
			contextual.IncrementCounterContext(ctx, metricStatementErrors, labels)
		}

		return
	}

	cfg.metrics.RecordDuration(metricStatementDuration, duration, labels)
	cfg.metrics.IncrementCounter(metricStatementsExecuted, labels)

	if status == statusError {
		cfg.metrics.IncrementCounter(metricStatementErrors, labels)
	}
}

// toMilliseconds converts a duration to milliseconds with 3 decimal places of precision.
func toMilliseconds(duration time.Duration) float64 {
	return math.Round(float64(duration.Nanoseconds())/1e6*1000) / 1000
}
