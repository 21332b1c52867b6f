package sniffer

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// executionCounters tracks executed statements process-wide and per execution
// context. An execution context is a goroutine, keyed by its ID. Counts are
// int64 so that deltas stay signed and an impossible negative delta is
// detectable instead of wrapping around.
//
// The context map holds one entry per goroutine that ever recorded. Goroutine
// IDs are not reused and goroutine exit leaves no hook, so entries are only
// reclaimed by resetContext; a long-lived Tracker recording from heavy
// goroutine churn grows with the number of goroutines it has seen.
type executionCounters struct {
	global    atomic.Int64
	mu        sync.RWMutex
	byContext map[int64]*atomic.Int64
}

func newExecutionCounters() *executionCounters {
	return &executionCounters{byContext: make(map[int64]*atomic.Int64)}
}

// increment bumps the process-wide counter and the calling context's counter.
// It never fails. Both bumps are atomic adds; the map lock is only taken to
// look up (or on first use create) the context's counter.
func (c *executionCounters) increment() {
	c.global.Add(1)
	c.contextCounter(goid.Get()).Add(1)
}

// contextCounter returns the counter for the given context, creating it on
// first use. The common path takes only the read lock.
func (c *executionCounters) contextCounter(contextID int64) *atomic.Int64 {
	c.mu.RLock()
	counter, found := c.byContext[contextID]
	c.mu.RUnlock()

	if found {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, found = c.byContext[contextID]; found {
		return counter
	}

	counter = new(atomic.Int64)
	c.byContext[contextID] = counter

	return counter
}

// globalCount returns the process-wide count.
func (c *executionCounters) globalCount() int64 {
	return c.global.Load()
}

// contextCount returns the calling context's count. A context that never
// executed a statement reads 0 without allocating an entry for it.
func (c *executionCounters) contextCount() int64 {
	c.mu.RLock()
	counter, found := c.byContext[goid.Get()]
	c.mu.RUnlock()

	if !found {
		return 0
	}

	return counter.Load()
}

// resetGlobal sets the process-wide counter back to zero. Administrative; counts
// read across a concurrent reset are unreliable, the counter itself never tears.
func (c *executionCounters) resetGlobal() {
	c.global.Store(0)
}

// resetContext removes the calling context's counter entry, so its count reads
// zero again and the entry is reclaimed. Same caveat as resetGlobal.
func (c *executionCounters) resetContext() {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.byContext, goid.Get())
}
