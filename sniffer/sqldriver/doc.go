// Package sqldriver wraps a database/sql driver so that every statement
// executed through it is recorded with a sniffer.Tracker, where spies can
// count and assert on it.
//
// The wrapper records direct executions (ExecContext, QueryContext) and
// executions of prepared statements, each with the statement text, exactly once
// per execution. Preparing a statement, beginning a transaction, committing and
// rolling back are not executions and are not recorded. Recording happens on
// the goroutine that executed the statement, which is what scopes per-context
// assertions.
//
// Common usage pattern:
//
//	if err := sqldriver.Register("sniffed-postgres", &pq.Driver{}); err != nil {
//		// handle err
//	}
//
//	db, err := sql.Open("sniffed-postgres", dsn)
//
// Connectors (sql.OpenDB) are wrapped with WrapConnector instead. All optional
// driver interfaces are forwarded with capability checks, so a wrapped driver
// behaves exactly like the underlying one, plus recording.
package sqldriver
