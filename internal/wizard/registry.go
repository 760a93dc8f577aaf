package wizard

import (
	"sync"
)

// Registry holds the current dialog state of each transport user
type Registry struct {
	mu     sync.Mutex
	states map[string]State
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]State),
	}
}

// Get returns the state of a user, if any
func (r *Registry) Get(transportID string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[transportID]
	return st, ok
}

// Set replaces the state of a user
func (r *Registry) Set(transportID string, st State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st == nil {
		delete(r.states, transportID)
		return
	}
	r.states[transportID] = st
}

// Clear ends any dialog of a user
func (r *Registry) Clear(transportID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, transportID)
}
