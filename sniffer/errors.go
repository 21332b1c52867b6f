package sniffer

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrSpyClosed occurs when an expectation, verification or counter read is
	// attempted on a spy that was already closed.
	ErrSpyClosed = errors.New("spy is already closed")

	// ErrVerificationFailed marks every verification failure, so that callers can
	// classify them with errors.Is regardless of which expectation was violated.
	ErrVerificationFailed = errors.New("statement count verification failed")

	// ErrInvalidExpectation occurs when expectation bounds are out of range.
	ErrInvalidExpectation = errors.New("invalid expectation")

	// ErrInvalidScope occurs when an unknown scope value is supplied, or more than
	// one scope is passed where at most one is allowed.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrNegativeBaseline occurs when a baseline with negative counts is supplied.
	ErrNegativeBaseline = errors.New("baseline counts must not be negative")
)

// CallSite identifies a code location, used to report where a spy was closed.
type CallSite struct {
	Function string
	File     string
	Line     int
}

// String returns the call site as "file:line (function)".
func (c CallSite) String() string {
	if c.File == "" {
		return "unknown location"
	}

	return fmt.Sprintf("%s:%d (%s)", c.File, c.Line, c.Function)
}

// callerSite resolves the call site the given number of frames above the caller
// of callerSite itself.
func callerSite(skip int) CallSite {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallSite{}
	}

	site := CallSite{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		site.Function = fn.Name()
	}

	return site
}

// SpyClosedError reports an operation on a spy that was already closed.
// It carries the location of the original Close call so that the misuse can be
// traced back to where the spy's lifecycle actually ended.
type SpyClosedError struct {
	ClosedAt CallSite
}

// Error implements the error interface.
func (e *SpyClosedError) Error() string {
	return fmt.Sprintf("spy is already closed, it was closed at %s", e.ClosedAt)
}

func newSpyClosedError(closedAt CallSite) error {
	return errors.Mark(&SpyClosedError{ClosedAt: closedAt}, ErrSpyClosed)
}

// VerificationError reports one violated expectation. Verify returns all
// violations joined together; each one can be extracted with errors.As and
// classified with errors.Is against ErrVerificationFailed.
type VerificationError struct {
	Scope       Scope
	MinCount    int64
	MaxCount    int64
	ActualCount int64
	Recorded    Statements
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	return fmt.Sprintf("expected %s for scope %q, but %d were executed (%d statements recorded)",
		e.expectedRange(), e.Scope, e.ActualCount, len(e.Recorded))
}

func (e *VerificationError) expectedRange() string {
	switch {
	case e.MinCount == e.MaxCount:
		return fmt.Sprintf("exactly %d statements", e.MinCount)
	case e.MaxCount == UnlimitedCount:
		return fmt.Sprintf("at least %d statements", e.MinCount)
	case e.MinCount == 0:
		return fmt.Sprintf("at most %d statements", e.MaxCount)
	default:
		return fmt.Sprintf("between %d and %d statements", e.MinCount, e.MaxCount)
	}
}

// newVerificationError builds a marked VerificationError and attaches a JSON dump
// of the violation as an error detail, visible in %+v output.
func newVerificationError(expectation Expectation, actualCount int64, recorded Statements) error {
	verificationErr := &VerificationError{
		Scope:       expectation.Scope(),
		MinCount:    expectation.MinCount(),
		MaxCount:    expectation.MaxCount(),
		ActualCount: actualCount,
		Recorded:    recorded,
	}

	marked := errors.Mark(verificationErr, ErrVerificationFailed)

	detail, marshalErr := jsoniter.ConfigFastest.MarshalToString(struct {
		Scope       string     `json:"scope"`
		MinCount    int64      `json:"min_count"`
		MaxCount    int64      `json:"max_count"`
		ActualCount int64      `json:"actual_count"`
		Recorded    Statements `json:"recorded_statements"`
	}{
		Scope:       verificationErr.Scope.String(),
		MinCount:    verificationErr.MinCount,
		MaxCount:    verificationErr.MaxCount,
		ActualCount: verificationErr.ActualCount,
		Recorded:    verificationErr.Recorded,
	})
	if marshalErr != nil {
		return marked
	}

	return errors.WithDetail(marked, detail)
}
