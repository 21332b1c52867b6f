package sniffer

import (
	"github.com/cockroachdb/errors"
)

// Scope selects which execution contexts a counter read or an expectation refers to.
// An execution context is a goroutine; the context of a call is always the goroutine
// that makes the call.
type Scope int

const (
	// CurrentContext counts only statements executed by the calling goroutine.
	// It is the default scope wherever a scope can be omitted.
	CurrentContext Scope = iota

	// AnyContext counts statements executed by all goroutines together.
	AnyContext

	// OtherContexts counts statements executed by all goroutines except the calling one.
	OtherContexts
)

// String returns a human-readable representation of the scope.
func (s Scope) String() string {
	switch s {
	case CurrentContext:
		return "current"
	case AnyContext:
		return "any"
	case OtherContexts:
		return "others"
	default:
		return "unknown"
	}
}

// resolveScope turns the optional trailing scope argument of the public API into a
// concrete scope, defaulting to CurrentContext when none was given.
func resolveScope(scope []Scope) (Scope, error) {
	switch len(scope) {
	case 0:
		return CurrentContext, nil
	case 1:
		resolved := scope[0]
		switch resolved {
		case CurrentContext, AnyContext, OtherContexts:
			return resolved, nil
		default:
			return 0, errors.Join(ErrInvalidScope, errors.Newf("unknown scope value %d", int(resolved)))
		}
	default:
		return 0, errors.Join(ErrInvalidScope, errors.Newf("at most one scope may be given, got %d", len(scope)))
	}
}
