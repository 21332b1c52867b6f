package snifftest

import (
	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

type config struct {
	tracker   *sniffer.Tracker
	autoClose bool
}

// Option configures a spy created with NewSpy.
type Option func(*config) error

// WithTracker makes the spy observe the given Tracker instead of the
// process-wide default one.
func WithTracker(tracker *sniffer.Tracker) Option {
	return func(cfg *config) error {
		if tracker == nil {
			return sniffer.ErrNilTracker
		}

		cfg.tracker = tracker

		return nil
	}
}

// WithoutAutoClose disables the cleanup that closes the spy when the test
// finishes. The test owns closing the spy itself then.
func WithoutAutoClose() Option {
	return func(cfg *config) error {
		cfg.autoClose = false

		return nil
	}
}
