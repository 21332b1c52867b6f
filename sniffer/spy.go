package sniffer

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/petermattis/goid"
)

// Spy observes the statements recorded since its creation (or last reset) and
// asserts on how many were executed. It holds a baseline of both counters, an
// ordered diagnostic log of every statement broadcast while it was registered,
// and an ordered list of queued expectations.
//
// A spy is open until Close is called; Close verifies, unregisters and seals it.
// All methods are safe for concurrent use.
type Spy struct {
	tracker *Tracker
	id      uuid.UUID

	mu           sync.Mutex
	baseline     Baseline
	origin       int64
	recorded     Statements
	expectations []Expectation
	closed       bool
	closedAt     CallSite
}

// ID returns the spy's unique identity, as used in log attributes.
func (s *Spy) ID() uuid.UUID {
	return s.id
}

// appendRecorded adds a broadcast statement to the diagnostic log. Statements
// arriving after Close are dropped. Called by the registry with the registry
// lock held; the lock order is always registry first, spy second.
func (s *Spy) appendRecorded(statement string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.recorded = append(s.recorded, statement)
}

// checkOpenLocked must be called with s.mu held.
func (s *Spy) checkOpenLocked() error {
	if s.closed {
		return newSpyClosedError(s.closedAt)
	}

	return nil
}

// ExecutedStatements returns how many statements were executed since the spy's
// baseline, for the given scope (CurrentContext when omitted). The current
// context is the goroutine making this call, not the one that created the spy.
// It fails on a closed spy.
func (s *Spy) ExecutedStatements(scope ...Scope) (int64, error) {
	resolvedScope, err := resolveScope(scope)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return 0, err
	}

	return s.deltaLocked(resolvedScope)
}

// deltaLocked computes the per-scope count from the live counters and the
// baseline. The global and context counters are read one after the other; a
// statement recorded by another goroutine between the two reads can shift an
// OtherContexts result by one. That approximation is accepted.
//
// AnyContext never involves a context counter, only the global delta, so a
// read from any goroutine sees the same value. The counters maintain
// globalDelta >= contextDelta >= 0 only on the goroutine the baseline was
// taken on; every other goroutine has its own context counter, unrelated to
// the baseline's, and legitimately computes the CurrentContext and
// OtherContexts formulas with a context delta below zero there. The chained
// invariant is therefore asserted only on the originating goroutine, where a
// violation means the counters (or a hand-built baseline) are corrupted; it
// is reported loudly, never clamped.
func (s *Spy) deltaLocked(scope Scope) (int64, error) {
	globalDelta := s.tracker.counters.globalCount() - s.baseline.GlobalCount

	if scope == AnyContext {
		if globalDelta < 0 {
			return 0, errors.AssertionFailedf(
				"statement counters violated their invariant: global delta %d (baseline global %d)",
				globalDelta, s.baseline.GlobalCount)
		}

		return globalDelta, nil
	}

	contextDelta := s.tracker.counters.contextCount() - s.baseline.ContextCount

	if goid.Get() == s.origin &&
		(globalDelta < 0 || contextDelta < 0 || globalDelta < contextDelta) {
		return 0, errors.AssertionFailedf(
			"statement counters violated their invariant: global delta %d, context delta %d (baseline global %d, context %d)",
			globalDelta, contextDelta, s.baseline.GlobalCount, s.baseline.ContextCount)
	}

	switch scope {
	case CurrentContext:
		return contextDelta, nil
	case OtherContexts:
		return globalDelta - contextDelta, nil
	default:
		return 0, errors.Join(ErrInvalidScope, errors.Newf("unknown scope value %d", int(scope)))
	}
}

// RecordedStatements returns a copy of the statements broadcast to this spy so
// far, in broadcast order. It stays readable after Close for diagnostics.
func (s *Spy) RecordedStatements() Statements {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.recorded)
}

// Reset moves the baseline to the current counter values and clears the
// diagnostic log. The calling goroutine becomes the spy's originating context,
// since the new context baseline is its counter. Queued expectations are kept
// and will be evaluated against the new baseline. It fails on a closed spy.
func (s *Spy) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return err
	}

	s.baseline = s.tracker.CurrentBaseline()
	s.origin = goid.Get()
	s.recorded = s.recorded[:0]

	return nil
}

// queueExpectation implements the Expect methods. The fluent chain has no error
// return slot, so misuse (invalid bounds, closed spy) panics with the same error
// values the Verify methods return.
func (s *Spy) queueExpectation(minCount, maxCount int64, scope []Scope) *Spy {
	expectation, err := BuildExpectation(minCount, maxCount, scope...)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		panic(err)
	}

	s.expectations = append(s.expectations, expectation)

	return s
}

// verifyExpectation implements the Verify methods: build, evaluate immediately.
func (s *Spy) verifyExpectation(minCount, maxCount int64, scope []Scope) error {
	expectation, err := BuildExpectation(minCount, maxCount, scope...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return err
	}

	return s.evaluateLocked(expectation)
}

// evaluateLocked checks one expectation against the live counters.
func (s *Spy) evaluateLocked(expectation Expectation) error {
	actualCount, err := s.deltaLocked(expectation.Scope())
	if err != nil {
		return err
	}

	if expectation.allows(actualCount) {
		return nil
	}

	return newVerificationError(expectation, actualCount, slices.Clone(s.recorded))
}

// ExpectNever queues an expectation that no statements are executed.
// The scope defaults to CurrentContext. It panics on a closed spy.
func (s *Spy) ExpectNever(scope ...Scope) *Spy {
	return s.queueExpectation(0, 0, scope)
}

// ExpectAtMostOnce queues an expectation that at most one statement is executed.
// The scope defaults to CurrentContext. It panics on a closed spy.
func (s *Spy) ExpectAtMostOnce(scope ...Scope) *Spy {
	return s.queueExpectation(0, 1, scope)
}

// ExpectAtMost queues an expectation that at most allowedCount statements are
// executed. The scope defaults to CurrentContext. It panics on invalid bounds
// or a closed spy.
func (s *Spy) ExpectAtMost(allowedCount int64, scope ...Scope) *Spy {
	return s.queueExpectation(0, allowedCount, scope)
}

// ExpectExactly queues an expectation that exactly allowedCount statements are
// executed. The scope defaults to CurrentContext. It panics on invalid bounds
// or a closed spy.
func (s *Spy) ExpectExactly(allowedCount int64, scope ...Scope) *Spy {
	return s.queueExpectation(allowedCount, allowedCount, scope)
}

// ExpectAtLeast queues an expectation that at least requiredCount statements
// are executed, with no upper bound. The scope defaults to CurrentContext.
// It panics on invalid bounds or a closed spy.
func (s *Spy) ExpectAtLeast(requiredCount int64, scope ...Scope) *Spy {
	return s.queueExpectation(requiredCount, UnlimitedCount, scope)
}

// ExpectBetween queues an expectation that between minAllowed and maxAllowed
// statements are executed, inclusive. The scope defaults to CurrentContext.
// It panics on invalid bounds or a closed spy.
func (s *Spy) ExpectBetween(minAllowed, maxAllowed int64, scope ...Scope) *Spy {
	return s.queueExpectation(minAllowed, maxAllowed, scope)
}

// VerifyNever immediately verifies that no statements were executed.
// The scope defaults to CurrentContext. It fails on a closed spy.
func (s *Spy) VerifyNever(scope ...Scope) error {
	return s.verifyExpectation(0, 0, scope)
}

// VerifyAtMostOnce immediately verifies that at most one statement was executed.
// The scope defaults to CurrentContext. It fails on a closed spy.
func (s *Spy) VerifyAtMostOnce(scope ...Scope) error {
	return s.verifyExpectation(0, 1, scope)
}

// VerifyAtMost immediately verifies that at most allowedCount statements were
// executed. The scope defaults to CurrentContext. It fails on a closed spy.
func (s *Spy) VerifyAtMost(allowedCount int64, scope ...Scope) error {
	return s.verifyExpectation(0, allowedCount, scope)
}

// VerifyExactly immediately verifies that exactly allowedCount statements were
// executed. The scope defaults to CurrentContext. It fails on a closed spy.
func (s *Spy) VerifyExactly(allowedCount int64, scope ...Scope) error {
	return s.verifyExpectation(allowedCount, allowedCount, scope)
}

// VerifyAtLeast immediately verifies that at least requiredCount statements
// were executed. The scope defaults to CurrentContext. It fails on a closed spy.
func (s *Spy) VerifyAtLeast(requiredCount int64, scope ...Scope) error {
	return s.verifyExpectation(requiredCount, UnlimitedCount, scope)
}

// VerifyBetween immediately verifies that between minAllowed and maxAllowed
// statements were executed, inclusive. The scope defaults to CurrentContext.
// It fails on a closed spy.
func (s *Spy) VerifyBetween(minAllowed, maxAllowed int64, scope ...Scope) error {
	return s.verifyExpectation(minAllowed, maxAllowed, scope)
}

// Verify evaluates every queued expectation in order against the live counters
// and reports all violations together, each one inspectable with errors.As and
// classified by ErrVerificationFailed. Expectations stay queued, so Verify can
// be called repeatedly. It fails on a closed spy.
func (s *Spy) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return err
	}

	return s.verifyLocked()
}

func (s *Spy) verifyLocked() error {
	var violations []error

	for _, expectation := range s.expectations {
		if err := s.evaluateLocked(expectation); err != nil {
			violations = append(violations, err)
		}
	}

	return errors.Join(violations...)
}

// Close verifies all queued expectations, then unregisters the spy and marks it
// closed whether or not verification succeeded. The verification failure, if
// any, is returned after the cleanup. The location of the Close call is
// recorded and reported by every later call on the spy; closing twice fails
// with that location. Statements broadcast after Close are not appended.
func (s *Spy) Close() error {
	s.mu.Lock()

	if err := s.checkOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	verificationErr := s.verifyLocked()

	s.closed = true
	s.closedAt = callerSite(1)
	s.mu.Unlock()

	s.tracker.registry.unregister(s.id)

	return verificationErr
}

// Closed reports whether Close was called on the spy.
func (s *Spy) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
