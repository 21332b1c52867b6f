package sqldriver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/cockroachdb/errors"
)

// conn wraps a driver.Conn. It implements the optional driver interfaces and
// delegates each capability check to the underlying conn, so database/sql sees
// the same capabilities it would see without the wrapper.
type conn struct {
	underlying driver.Conn
	cfg        *config
}

// Compile-time checks that conn implements the driver interfaces.
var (
	_ driver.Conn               = (*conn)(nil)
	_ driver.ConnPrepareContext = (*conn)(nil)
	_ driver.ExecerContext      = (*conn)(nil)
	_ driver.QueryerContext     = (*conn)(nil)
	_ driver.ConnBeginTx        = (*conn)(nil)
	_ driver.Pinger             = (*conn)(nil)
	_ driver.SessionResetter    = (*conn)(nil)
	_ driver.Validator          = (*conn)(nil)
	_ driver.NamedValueChecker  = (*conn)(nil)
)

// Prepare implements driver.Conn. Preparing is not an execution and is not
// recorded; the produced stmt records each of its executions.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	underlyingStmt, err := c.underlying.Prepare(query)
	if err != nil {
		return nil, err
	}

	return &stmt{underlying: underlyingStmt, query: query, cfg: c.cfg}, nil
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if preparer, ok := c.underlying.(driver.ConnPrepareContext); ok {
		underlyingStmt, err := preparer.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}

		return &stmt{underlying: underlyingStmt, query: query, cfg: c.cfg}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.Prepare(query)
}

// Close implements driver.Conn.
func (c *conn) Close() error {
	return c.underlying.Close()
}

// Begin implements driver.Conn.
func (c *conn) Begin() (driver.Tx, error) {
	return c.underlying.Begin() //nolint:staticcheck // driver.Conn still requires the deprecated method
}

// BeginTx implements driver.ConnBeginTx. Underlying conns without BeginTx
// support only get the legacy Begin when the options are the defaults,
// matching the fallback rules of database/sql.
func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginner, ok := c.underlying.(driver.ConnBeginTx); ok {
		return beginner.BeginTx(ctx, opts)
	}

	if opts.Isolation != driver.IsolationLevel(sql.LevelDefault) {
		return nil, errors.New("underlying driver does not support a non-default isolation level")
	}

	if opts.ReadOnly {
		return nil, errors.New("underlying driver does not support read-only transactions")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.underlying.Begin() //nolint:staticcheck // legacy fallback
}

// ExecContext implements driver.ExecerContext. The statement is recorded after
// the underlying driver handled it, whether it succeeded or failed; ErrSkip
// outcomes are not recorded because database/sql retries them on the prepared
// path, which records.
func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	spanCtx, span := c.cfg.startStatementSpan(ctx, operationExec, query)
	start := time.Now()

	result, err := c.execContext(spanCtx, query, args)
	if errors.Is(err, driver.ErrSkip) {
		c.cfg.abandonStatementSpan(span)

		return result, err
	}

	duration := time.Since(start)
	c.cfg.observeStatement(spanCtx, operationExec, query, duration, err)
	c.cfg.finishStatementSpan(span, duration, err)

	return result, err
}

func (c *conn) execContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if execer, ok := c.underlying.(driver.ExecerContext); ok {
		return execer.ExecContext(ctx, query, args)
	}

	if execer, ok := c.underlying.(driver.Execer); ok { //nolint:staticcheck // legacy driver support
		values, err := namedValuesToValues(args)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return execer.Exec(query, values)
	}

	return nil, driver.ErrSkip
}

// QueryContext implements driver.QueryerContext, with the same recording rules
// as ExecContext.
func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	spanCtx, span := c.cfg.startStatementSpan(ctx, operationQuery, query)
	start := time.Now()

	rows, err := c.queryContext(spanCtx, query, args)
	if errors.Is(err, driver.ErrSkip) {
		c.cfg.abandonStatementSpan(span)

		return rows, err
	}

	duration := time.Since(start)
	c.cfg.observeStatement(spanCtx, operationQuery, query, duration, err)
	c.cfg.finishStatementSpan(span, duration, err)

	return rows, err
}

func (c *conn) queryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if queryer, ok := c.underlying.(driver.QueryerContext); ok {
		return queryer.QueryContext(ctx, query, args)
	}

	if queryer, ok := c.underlying.(driver.Queryer); ok { //nolint:staticcheck // legacy driver support
		values, err := namedValuesToValues(args)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return queryer.Query(query, values)
	}

	return nil, driver.ErrSkip
}

// Ping implements driver.Pinger. Conns whose underlying driver can not ping
// report success, matching how database/sql treats such conns.
func (c *conn) Ping(ctx context.Context) error {
	if pinger, ok := c.underlying.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}

	return nil
}

// ResetSession implements driver.SessionResetter.
func (c *conn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.underlying.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}

	return nil
}

// IsValid implements driver.Validator.
func (c *conn) IsValid() bool {
	if validator, ok := c.underlying.(driver.Validator); ok {
		return validator.IsValid()
	}

	return true
}

// CheckNamedValue implements driver.NamedValueChecker, deferring to the default
// conversion when the underlying conn has no checker of its own.
func (c *conn) CheckNamedValue(value *driver.NamedValue) error {
	if checker, ok := c.underlying.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(value)
	}

	return driver.ErrSkip
}

// namedValuesToValues converts named args for legacy Execer/Queryer drivers,
// which can not handle named parameters.
func namedValuesToValues(named []driver.NamedValue) ([]driver.Value, error) {
	values := make([]driver.Value, 0, len(named))

	for _, namedValue := range named {
		if namedValue.Name != "" {
			return nil, errors.New("legacy driver does not support named parameters")
		}

		values = append(values, namedValue.Value)
	}

	return values, nil
}
