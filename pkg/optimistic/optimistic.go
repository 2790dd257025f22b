// Package optimistic implements client-side reconciliation for mutations that
// are rendered before the server confirms them. Local state is a guess; the
// server response is the only truth. Commits replace local state wholesale,
// failures roll back to the pre-mutation snapshot, and mutations on the same
// key are serialized so rapid toggles never race each other in flight.
package optimistic

import (
	"sync"
)

// Key identifies one reconciled piece of state, e.g. {"review", "<uuid>"}.
type Key struct {
	Resource string
	ID       string
}

type entry struct {
	state    interface{}
	inflight chan struct{} // buffered(1); holding the slot = exclusive mutation right
}

// Reconciler tracks local state per key and reconciles it against
// authoritative server responses.
type Reconciler struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

func NewReconciler() *Reconciler {
	return &Reconciler{entries: make(map[Key]*entry)}
}

func (r *Reconciler) entryFor(key Key) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{inflight: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	return e
}

// Get returns the current local state for key.
func (r *Reconciler) Get(key Key) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok || e.state == nil {
		return nil, false
	}
	return e.state, true
}

// Observe replaces the local state for key with a server-sourced value, e.g.
// from an initial fetch or a push event. Server state always wins over a
// stale local guess.
func (r *Reconciler) Observe(key Key, state interface{}) {
	e := r.entryFor(key)
	r.mu.Lock()
	e.state = state
	r.mu.Unlock()
}

// Mutate runs one optimistic mutation against key:
//
//  1. waits until no other mutation on the same key is in flight,
//  2. snapshots current state and applies guess to it immediately,
//  3. runs send (the remote call); on success the returned server state
//     replaces the local guess, on error the snapshot is restored.
//
// The returned state is what the client should render after reconciliation.
// Mutations on different keys proceed concurrently.
func (r *Reconciler) Mutate(key Key, guess func(prev interface{}) interface{}, send func() (interface{}, error)) (interface{}, error) {
	e := r.entryFor(key)

	e.inflight <- struct{}{}
	defer func() { <-e.inflight }()

	r.mu.Lock()
	snapshot := e.state
	e.state = guess(snapshot)
	r.mu.Unlock()

	server, err := send()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		e.state = snapshot
		return snapshot, err
	}
	e.state = server
	return server, nil
}
