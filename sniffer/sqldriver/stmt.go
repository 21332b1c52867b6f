package sqldriver

import (
	"context"
	"database/sql/driver"
	"time"
)

// stmt wraps a driver.Stmt together with the query text it was prepared from,
// so each execution can be recorded with that text.
type stmt struct {
	underlying driver.Stmt
	query      string
	cfg        *config
}

// Compile-time checks that stmt implements the driver interfaces.
var (
	_ driver.Stmt              = (*stmt)(nil)
	_ driver.StmtExecContext   = (*stmt)(nil)
	_ driver.StmtQueryContext  = (*stmt)(nil)
	_ driver.NamedValueChecker = (*stmt)(nil)
)

// Close implements driver.Stmt.
func (s *stmt) Close() error {
	return s.underlying.Close()
}

// NumInput implements driver.Stmt.
func (s *stmt) NumInput() int {
	return s.underlying.NumInput()
}

// Exec implements driver.Stmt.
func (s *stmt) Exec(args []driver.Value) (driver.Result, error) { //nolint:staticcheck // driver.Stmt still requires the deprecated method
	_, span := s.cfg.startStatementSpan(context.Background(), operationExec, s.query)
	start := time.Now()

	result, err := s.underlying.Exec(args) //nolint:staticcheck // legacy path
	duration := time.Since(start)
	s.cfg.observeStatement(context.Background(), operationExec, s.query, duration, err)
	s.cfg.finishStatementSpan(span, duration, err)

	return result, err
}

// Query implements driver.Stmt.
func (s *stmt) Query(args []driver.Value) (driver.Rows, error) { //nolint:staticcheck // driver.Stmt still requires the deprecated method
	_, span := s.cfg.startStatementSpan(context.Background(), operationQuery, s.query)
	start := time.Now()

	rows, err := s.underlying.Query(args) //nolint:staticcheck // legacy path
	duration := time.Since(start)
	s.cfg.observeStatement(context.Background(), operationQuery, s.query, duration, err)
	s.cfg.finishStatementSpan(span, duration, err)

	return rows, err
}

// ExecContext implements driver.StmtExecContext.
func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	spanCtx, span := s.cfg.startStatementSpan(ctx, operationExec, s.query)
	start := time.Now()

	result, err := s.execContext(spanCtx, args)
	duration := time.Since(start)
	s.cfg.observeStatement(spanCtx, operationExec, s.query, duration, err)
	s.cfg.finishStatementSpan(span, duration, err)

	return result, err
}

func (s *stmt) execContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if execer, ok := s.underlying.(driver.StmtExecContext); ok {
		return execer.ExecContext(ctx, args)
	}

	values, err := namedValuesToValues(args)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.underlying.Exec(values) //nolint:staticcheck // legacy path
}

// QueryContext implements driver.StmtQueryContext.
func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	spanCtx, span := s.cfg.startStatementSpan(ctx, operationQuery, s.query)
	start := time.Now()

	rows, err := s.queryContext(spanCtx, args)
	duration := time.Since(start)
	s.cfg.observeStatement(spanCtx, operationQuery, s.query, duration, err)
	s.cfg.finishStatementSpan(span, duration, err)

	return rows, err
}

func (s *stmt) queryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if queryer, ok := s.underlying.(driver.StmtQueryContext); ok {
		return queryer.QueryContext(ctx, args)
	}

	values, err := namedValuesToValues(args)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.underlying.Query(values) //nolint:staticcheck // legacy path
}

// CheckNamedValue implements driver.NamedValueChecker, deferring to the default
// conversion when the underlying stmt has no checker of its own.
func (s *stmt) CheckNamedValue(value *driver.NamedValue) error {
	if checker, ok := s.underlying.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(value)
	}

	return driver.ErrSkip
}
