package sniffer

import (
	"testing"

	"github.com/petermattis/goid"
	"github.com/stretchr/testify/assert"
)

func Test_Counters_Increment_CountsTheCallingContext(t *testing.T) {
	// arrange
	counters := newExecutionCounters()

	// act
	counters.increment()
	counters.increment()

	// assert
	assert.Equal(t, int64(2), counters.globalCount())
	assert.Equal(t, int64(2), counters.contextCount())
}

func Test_Counters_ContextCounter_IsSharedPerContext(t *testing.T) {
	// arrange
	counters := newExecutionCounters()

	// act
	first := counters.contextCounter(7)
	second := counters.contextCounter(7)
	counters.contextCounter(8).Add(1)

	// assert
	assert.Same(t, first, second)
	assert.Equal(t, int64(0), first.Load(), "another context's count must not leak over")
}

func Test_Counters_ContextCount_WithoutEntry_ReadsZero(t *testing.T) {
	// arrange
	counters := newExecutionCounters()

	// assert
	assert.Equal(t, int64(0), counters.contextCount())
}

func Test_Counters_ResetContext_ReclaimsTheCallingContextsEntry(t *testing.T) {
	// arrange
	counters := newExecutionCounters()
	counters.increment()

	// act
	counters.resetContext()

	// assert
	assert.Equal(t, int64(0), counters.contextCount())

	counters.mu.RLock()
	_, found := counters.byContext[goid.Get()]
	counters.mu.RUnlock()
	assert.False(t, found, "the reset must drop the entry, not keep it at zero")
}

func Test_Counters_ResetContext_WithoutEntry_IsANoOp(t *testing.T) {
	// arrange
	counters := newExecutionCounters()

	// act
	counters.resetContext()

	// assert
	assert.Equal(t, int64(0), counters.contextCount())
}
