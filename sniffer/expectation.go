package sniffer

import (
	"math"

	"github.com/cockroachdb/errors"
)

// UnlimitedCount marks an expectation without an upper bound.
const UnlimitedCount int64 = math.MaxInt64

// Expectation is an immutable allowed range of executed statement counts for one
// scope. Spies queue expectations through the Expect methods and evaluate them
// with Verify; the Verify methods evaluate a single expectation immediately.
type Expectation struct {
	minCount int64
	maxCount int64
	scope    Scope
}

// BuildExpectation validates the given bounds and creates an Expectation from
// them. The scope is optional and defaults to CurrentContext; use UnlimitedCount
// as maxCount for an expectation without an upper bound.
func BuildExpectation(minCount, maxCount int64, scope ...Scope) (Expectation, error) {
	resolvedScope, err := resolveScope(scope)
	if err != nil {
		return Expectation{}, err
	}

	expectation := Expectation{minCount: minCount, maxCount: maxCount, scope: resolvedScope}
	if err := expectation.Validate(); err != nil {
		return Expectation{}, err
	}

	return expectation, nil
}

// Validate checks that the bounds form a usable range.
func (e Expectation) Validate() error {
	if e.minCount < 0 {
		return errors.Join(ErrInvalidExpectation,
			errors.Newf("minimum count must not be negative, got %d", e.minCount))
	}

	if e.maxCount < e.minCount {
		return errors.Join(ErrInvalidExpectation,
			errors.Newf("maximum count %d must not be below minimum count %d", e.maxCount, e.minCount))
	}

	return nil
}

// MinCount returns the lower bound of the allowed range.
func (e Expectation) MinCount() int64 {
	return e.minCount
}

// MaxCount returns the upper bound of the allowed range, UnlimitedCount if unbounded.
func (e Expectation) MaxCount() int64 {
	return e.maxCount
}

// Scope returns the scope the expectation counts statements in.
func (e Expectation) Scope() Scope {
	return e.scope
}

// allows reports whether the actual count satisfies the range.
func (e Expectation) allows(actualCount int64) bool {
	return actualCount >= e.minCount && actualCount <= e.maxCount
}
