package sniffer

import (
	"github.com/cockroachdb/errors"
)

// Baseline captures the counter values a spy measures against. A spy created
// with Tracker.Spy snapshots the live counters; BuildBaseline allows composing
// spies against an explicit reference point instead.
type Baseline struct {
	GlobalCount  int64
	ContextCount int64
}

// BuildBaseline validates the given counts and creates a Baseline from them.
func BuildBaseline(globalCount, contextCount int64) (Baseline, error) {
	baseline := Baseline{GlobalCount: globalCount, ContextCount: contextCount}

	if err := baseline.Validate(); err != nil {
		return Baseline{}, err
	}

	return baseline, nil
}

// Validate checks that neither count is negative. Counters never go negative,
// so a negative baseline can not correspond to any counter state.
func (b Baseline) Validate() error {
	if b.GlobalCount < 0 || b.ContextCount < 0 {
		return errors.Join(ErrNegativeBaseline,
			errors.Newf("got global count %d and context count %d", b.GlobalCount, b.ContextCount))
	}

	return nil
}
