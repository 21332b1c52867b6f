package helper

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// GivenTracker creates a fresh Tracker so the test counts in isolation from the
// process-wide default.
func GivenTracker(t testing.TB, options ...sniffer.Option) *sniffer.Tracker {
	tracker, err := sniffer.New(options...)
	assert.NoError(t, err, "error in arranging test tracker")

	return tracker
}

// RecordStatements records count copies of the statement on the tracker from
// the calling goroutine.
func RecordStatements(tracker *sniffer.Tracker, count int, statement string) {
	for i := 0; i < count; i++ {
		tracker.Record(statement)
	}
}

// RecordStatementsInOtherContext records count copies of the statement on the
// tracker from a separate goroutine and waits for that goroutine to finish, so
// the counts are visible when it returns.
func RecordStatementsInOtherContext(tracker *sniffer.Tracker, count int, statement string) {
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 0; i < count; i++ {
			tracker.Record(statement)
		}
	}()

	wg.Wait()
}

// InOtherContext runs the given function on a separate goroutine and waits for
// it to finish. Useful for reading counts or creating spies from an execution
// context other than the test's own.
func InOtherContext(fn func()) {
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		fn()
	}()

	wg.Wait()
}
