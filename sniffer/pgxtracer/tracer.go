// Package pgxtracer plugs statement recording into pgx v5, which does not go
// through database/sql. The Tracer implements pgx.QueryTracer and
// pgx.BatchTracer and records every executed statement, including each
// statement of a batch individually, with a sniffer.Tracker.
//
// Common usage pattern:
//
//	tracer, err := pgxtracer.New()
//	// handle err
//
//	poolConfig, err := pgxpool.ParseConfig(dsn)
//	// handle err
//	poolConfig.ConnConfig.Tracer = tracer
//
//	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
package pgxtracer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

const (
	operationQuery = "query"
	operationBatch = "batch"
	statusSuccess  = "success"
	statusError    = "error"

	logMsgStatementExecuted = "statement executed"
	logMsgStatementFailed   = "statement execution failed"
	logMsgBatchCompleted    = "batch completed"
	logAttrStatement        = "statement"
	logAttrOperation        = "operation"
	logAttrDurationMS       = "duration_ms"
	logAttrRowsAffected     = "rows_affected"
	logAttrStatementCount   = "statement_count"
	logAttrError            = "error"

	labelOperation = "operation"
	labelStatus    = "status"

	metricStatementDuration  = "sniffer_statement_duration"
	metricStatementsExecuted = "sniffer_statements_executed"
	metricStatementErrors    = "sniffer_statement_errors"

	spanNameStatement = "sniffer.statement"
	spanNameBatch     = "sniffer.batch"
)

type contextKey int

const (
	queryStartKey contextKey = iota
	batchStartKey
)

type queryStart struct {
	sql     string
	startAt time.Time
	span    sniffer.SpanContext
}

type batchStart struct {
	startAt time.Time
	span    sniffer.SpanContext
}

type config struct {
	tracker          *sniffer.Tracker
	logger           sniffer.Logger
	contextualLogger sniffer.ContextualLogger
	metrics          sniffer.MetricsCollector
	tracing          sniffer.TracingCollector
}

// Tracer records statements executed through a pgx connection or pool.
type Tracer struct {
	cfg *config
}

// Compile-time checks that Tracer implements the pgx tracer interfaces.
var (
	_ pgx.QueryTracer = (*Tracer)(nil)
	_ pgx.BatchTracer = (*Tracer)(nil)
)

// New creates a Tracer with the given options applied. Without options it
// records on the process-wide default Tracker and stays silent.
func New(options ...Option) (*Tracer, error) {
	cfg := &config{tracker: sniffer.Default()}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	return &Tracer{cfg: cfg}, nil
}

// TraceQueryStart implements pgx.QueryTracer. It stashes the statement text,
// the start time and an optional span in the context for TraceQueryEnd.
func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	spanCtx, span := t.startSpan(ctx, spanNameStatement, operationQuery, data.SQL)

	return context.WithValue(spanCtx, queryStartKey, queryStart{sql: data.SQL, startAt: time.Now(), span: span})
}

// TraceQueryEnd implements pgx.QueryTracer. It records the statement on the
// executing goroutine, whether it succeeded or failed.
func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey).(queryStart)
	if !ok {
		return
	}

	duration := time.Since(start.startAt)

	t.cfg.tracker.Record(start.sql)

	if data.Err != nil {
		t.logStatementFailed(ctx, operationQuery, start.sql, duration, data.Err)
		t.recordStatementMetrics(ctx, operationQuery, statusError, duration)
		t.finishSpan(start.span, duration, data.Err)

		return
	}

	t.logStatementExecuted(ctx, start.sql, duration, data.CommandTag.RowsAffected())
	t.recordStatementMetrics(ctx, operationQuery, statusSuccess, duration)
	t.finishSpan(start.span, duration, nil)
}

// TraceBatchStart implements pgx.BatchTracer. One span covers the whole batch;
// pgx reports no per-statement timing inside a batch.
func (t *Tracer) TraceBatchStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceBatchStartData) context.Context {
	spanCtx, span := t.startSpan(ctx, spanNameBatch, operationBatch, "")

	return context.WithValue(spanCtx, batchStartKey, batchStart{startAt: time.Now(), span: span})
}

// TraceBatchQuery implements pgx.BatchTracer. Each statement of a batch is
// recorded individually; pgx reports no per-statement duration, so none is
// logged or measured here.
func (t *Tracer) TraceBatchQuery(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchQueryData) {
	t.cfg.tracker.Record(data.SQL)

	if data.Err != nil {
		t.logBatchStatementFailed(ctx, data.SQL, data.Err)
		t.incrementBatchMetrics(ctx, statusError)

		return
	}

	t.incrementBatchMetrics(ctx, statusSuccess)
}

// TraceBatchEnd implements pgx.BatchTracer.
func (t *Tracer) TraceBatchEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchEndData) {
	start, ok := ctx.Value(batchStartKey).(batchStart)
	if !ok {
		return
	}

	duration := time.Since(start.startAt)

	if data.Err != nil {
		t.logStatementFailed(ctx, operationBatch, "", duration, data.Err)
		t.finishSpan(start.span, duration, data.Err)

		return
	}

	t.logDebug(ctx, logMsgBatchCompleted,
		logAttrOperation, operationBatch,
		logAttrDurationMS, toMilliseconds(duration))
	t.finishSpan(start.span, duration, nil)
}

func (t *Tracer) logStatementExecuted(ctx context.Context, sql string, duration time.Duration, rowsAffected int64) {
	t.logDebug(ctx, logMsgStatementExecuted,
		logAttrOperation, operationQuery,
		logAttrStatement, sql,
		logAttrDurationMS, toMilliseconds(duration),
		logAttrRowsAffected, rowsAffected)
}

func (t *Tracer) logBatchStatementFailed(ctx context.Context, sql string, execErr error) {
	t.logError(ctx, logMsgStatementFailed,
		logAttrOperation, operationBatch,
		logAttrStatement, sql,
		logAttrError, execErr.Error())
}

func (t *Tracer) logStatementFailed(ctx context.Context, operation, sql string, duration time.Duration, execErr error) {
	t.logError(ctx, logMsgStatementFailed,
		logAttrOperation, operation,
		logAttrStatement, sql,
		logAttrDurationMS, toMilliseconds(duration),
		logAttrError, execErr.Error())
}

// startSpan starts a span if a tracing collector is configured. The returned
// context carries the span, so it propagates into the query execution.
func (t *Tracer) startSpan(ctx context.Context, name, operation, sql string) (context.Context, sniffer.SpanContext) {
	if t.cfg.tracing == nil {
		return ctx, nil
	}

	attrs := map[string]string{logAttrOperation: operation}
	if sql != "" {
		attrs[logAttrStatement] = sql
	}

	return t.cfg.tracing.StartSpan(ctx, name, attrs)
}

// finishSpan finishes a span with the execution outcome.
func (t *Tracer) finishSpan(span sniffer.SpanContext, duration time.Duration, execErr error) {
	if t.cfg.tracing == nil || span == nil {
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

	t.cfg.tracing.FinishSpan(span, status, attrs)
}

func (t *Tracer) logDebug(ctx context.Context, msg string, args ...any) {
	if t.cfg.contextualLogger != nil {
		t.cfg.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if t.cfg.logger != nil {
		t.cfg.logger.Debug(msg, args...)
	}
}

func (t *Tracer) logError(ctx context.Context, msg string, args ...any) {
	if t.cfg.contextualLogger != nil {
		t.cfg.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if t.cfg.logger != nil {
		t.cfg.logger.Error(msg, args...)
	}
}

func (t *Tracer) recordStatementMetrics(ctx context.Context, operation, status string, duration time.Duration) {
	if t.cfg.metrics == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelStatus:    status,
	}

	if contextual, ok := t.cfg.metrics.(sniffer.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricStatementDuration, duration, labels)
		contextual.IncrementCounterContext(ctx, metricStatementsExecuted, labels)

		if status == statusError {
			contextual.IncrementCounterContext(ctx, metricStatementErrors, labels)
		}

		return
	}

	t.cfg.metrics.RecordDuration(metricStatementDuration, duration, labels)
	t.cfg.metrics.IncrementCounter(metricStatementsExecuted, labels)

	if status == statusError {
		t.cfg.metrics.IncrementCounter(metricStatementErrors, labels)
	}
}

func (t *Tracer) incrementBatchMetrics(ctx context.Context, status string) {
	if t.cfg.metrics == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operationBatch,
		labelStatus:    status,
	}

	if contextual, ok := t.cfg.metrics.(sniffer.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricStatementsExecuted, labels)

		if status == statusError {
			contextual.IncrementCounterContext(ctx, metricStatementErrors, labels)
		}

		return
	}

	t.cfg.metrics.IncrementCounter(metricStatementsExecuted, labels)

	if status == statusError {
		t.cfg.metrics.IncrementCounter(metricStatementErrors, labels)
	}
}

// toMilliseconds converts a duration to milliseconds with 3 decimal places of precision.
func toMilliseconds(duration time.Duration) float64 {
	return math.Round(float64(duration.Nanoseconds())/1e6*1000) / 1000
}
