package sniffer

import (
	"sync"
	"weak"

	"github.com/google/uuid"
)

// spyRegistry holds weak handles to all registered spies so that recording can
// broadcast statement texts to them without keeping abandoned spies alive. A spy
// that was dropped without being closed is reclaimed by the garbage collector;
// its handle is pruned lazily during the next broadcast.
type spyRegistry struct {
	mu    sync.Mutex
	spies map[uuid.UUID]weak.Pointer[Spy]
}

func newSpyRegistry() *spyRegistry {
	return &spyRegistry{spies: make(map[uuid.UUID]weak.Pointer[Spy])}
}

// register stores a weak handle for the spy, keyed by its ID.
func (r *spyRegistry) register(spy *Spy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spies[spy.id] = weak.Make(spy)
}

// unregister removes the spy's handle. Unknown IDs are ignored, so unregistering
// twice is harmless.
func (r *spyRegistry) unregister(spyID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.spies, spyID)
}

// registeredCount returns the number of handles currently held, including
// handles whose spies are reclaimed but not yet pruned.
func (r *spyRegistry) registeredCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.spies)
}

// broadcast appends the statement text to the diagnostic log of every live
// registered spy and prunes handles whose spies were reclaimed. The registry
// lock is held across the whole iteration: that serializes concurrent
// broadcasts, so all spy logs see the same relative statement order.
func (r *spyRegistry) broadcast(statement string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spyID, handle := range r.spies {
		spy := handle.Value()
		if spy == nil {
			delete(r.spies, spyID)
			continue
		}

		spy.appendRecorded(statement)
	}
}
