package sniffer

import (
	"github.com/cockroachdb/errors"
)

// Execute runs the given work and then verifies all queued expectations.
// If the work fails while verification passes, the work error is returned as
// is. If both fail, the verification failure is attached to the work error as
// its secondary cause: the work error keeps its identity for errors.Is, the
// verification failure is carried along and printed by %+v. Neither is dropped.
//
// A panic in the work is not swallowed: verification still runs, but a panic
// value has no slot to attach a secondary error to, so a verification failure
// is logged through the Tracker's logger and the original panic is re-raised.
func (s *Spy) Execute(work func() error) error {
	if work == nil {
		return ErrNilWork
	}

	if err := s.precheckOpen(); err != nil {
		return err
	}

	if workErr := s.runGuarded(work); workErr != nil {
		if verificationErr := s.Verify(); verificationErr != nil {
			return errors.CombineErrors(workErr, verificationErr)
		}

		return workErr
	}

	return s.Verify()
}

// Run runs the given work and then verifies all queued expectations. It is
// Execute for work that reports failures by panicking or not at all.
func (s *Spy) Run(work func()) error {
	if work == nil {
		return ErrNilWork
	}

	return s.Execute(func() error {
		work()
		return nil
	})
}

func (s *Spy) precheckOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.checkOpenLocked()
}

// runGuarded executes the work, verifying on the panic path before re-raising.
func (s *Spy) runGuarded(work func() error) error {
	defer func() {
		if panicValue := recover(); panicValue != nil {
			if verificationErr := s.Verify(); verificationErr != nil {
				s.tracker.logVerificationSuppressed(s.id, verificationErr)
			}

			panic(panicValue)
		}
	}()

	return work()
}

// SpyWithValue couples a spy with the value its Call work produced.
type SpyWithValue[V any] struct {
	*Spy

	value V
}

// Value returns the result produced by the work passed to Call.
func (s SpyWithValue[V]) Value() V {
	return s.value
}

// Call runs work that produces a value and then verifies all queued
// expectations of the spy, with the same failure semantics as Execute. The
// value is only returned when both the work and the verification succeeded.
// Go methods can not introduce type parameters, so Call is a package-level
// function rather than a Spy method.
func Call[V any](spy *Spy, work func() (V, error)) (SpyWithValue[V], error) {
	if spy == nil {
		return SpyWithValue[V]{}, ErrNilSpy
	}

	if work == nil {
		return SpyWithValue[V]{}, ErrNilWork
	}

	var value V

	err := spy.Execute(func() error {
		var workErr error
		value, workErr = work()

		return workErr
	})
	if err != nil {
		return SpyWithValue[V]{}, err
	}

	return SpyWithValue[V]{Spy: spy, value: value}, nil
}
