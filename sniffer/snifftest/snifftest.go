// Package snifftest integrates statement spies with the standard testing
// package. NewSpy hands out a spy whose expectations are verified
// automatically when the test finishes, so tests do not have to remember to
// close it.
//
// Common usage pattern:
//
//	func Test_Repository_Save_ShouldIssueSingleInsert(t *testing.T) {
//		spy := snifftest.NewSpy(t).ExpectExactly(1)
//
//		repository.Save(ctx, customer)
//	}
package snifftest

import (
	"testing"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// NewSpy creates a spy on the configured Tracker and registers a cleanup that
// closes it when the test finishes. Unmet expectations fail the test through
// t.Error. A spy the test already closed itself is left alone.
func NewSpy(t testing.TB, options ...Option) *sniffer.Spy {
	t.Helper()

	cfg := &config{tracker: sniffer.Default(), autoClose: true}

	for _, option := range options {
		if err := option(cfg); err != nil {
			t.Fatalf("invalid spy option: %v", err)
		}
	}

	spy := cfg.tracker.Spy()

	if cfg.autoClose {
		t.Cleanup(func() {
			if spy.Closed() {
				return
			}

			if err := spy.Close(); err != nil {
				t.Errorf("statement expectations not met: %+v", err)
			}
		})
	}

	return spy
}
