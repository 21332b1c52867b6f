// Package sniffer counts the SQL statements an application executes and lets
// tests assert on those counts.
//
// Key types:
//   - Tracker: owns the statement counters (process-wide and per goroutine) and
//     the registry of spies. Record counts one executed statement and broadcasts
//     its text to all live spies. A process-wide default Tracker backs the
//     package-level functions.
//   - Spy: measures statements executed since its creation, keeps a diagnostic
//     log of their texts, and carries queued expectations. Closed once via Close,
//     which verifies, unregisters and seals it.
//   - Scope: selects whose statements count, the calling goroutine
//     (CurrentContext), everyone (AnyContext), or everyone else (OtherContexts).
//   - Expectation: an immutable allowed range of statement counts for one scope.
//
// Common usage pattern:
//
//	spy := sniffer.NewSpy().ExpectAtMost(2)
//
//	// ... run the code under test, statements are recorded by an
//	// instrumented driver (see the sqldriver and pgxtracer subpackages) ...
//
//	if err := spy.Close(); err != nil {
//		// wrong number of statements, err lists every violated expectation
//	}
//
// The Execute, Run and Call wrappers run a function and verify in one step,
// attaching verification failures to the function's own error without dropping
// either. Statement recording is hooked into database access through the
// subpackages: sqldriver wraps a database/sql driver, pgxtracer plugs into pgx
// v5 tracing, and snifftest binds spies to the testing package's lifecycle.
package sniffer
