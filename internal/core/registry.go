package core

import "sync"

// Registry tracks live connections by handle. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[Handle]Sender
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[Handle]Sender)}
}

// Add inserts a connection. Returns false and keeps the existing entry if the handle is present.
func (r *Registry) Add(h Handle, s Sender) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[h]; exists {
		return false
	}
	r.conns[h] = s
	return true
}

// Remove deletes a connection. Removing an absent handle is a no-op.
func (r *Registry) Remove(h Handle) (Sender, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.conns[h]
	if !exists {
		return nil, false
	}
	delete(r.conns, h)
	return s, true
}

// Contains reports whether h is registered.
func (r *Registry) Contains(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.conns[h]
	return exists
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

type entry struct {
	handle Handle
	sender Sender
}

// Failure is a recipient whose action failed during ForEachExcept.
type Failure struct {
	Handle Handle
	Err    error
}

// ForEachExcept calls action for every connection other than exclude and
// returns the recipients whose action failed. The action runs outside the
// lock on a snapshot, so it may call back into the registry. A failing or
// panicking action only skips that recipient.
func (r *Registry) ForEachExcept(exclude Handle, action func(Sender) error) []Failure {
	var failed []Failure
	for _, e := range r.snapshot(exclude) {
		if err := safeCall(action, e.sender); err != nil {
			failed = append(failed, Failure{Handle: e.handle, Err: err})
		}
	}
	return failed
}

func (r *Registry) snapshot(exclude Handle) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]entry, 0, len(r.conns))
	for h, s := range r.conns {
		if h == exclude {
			continue
		}
		entries = append(entries, entry{handle: h, sender: s})
	}
	return entries
}

func safeCall(action func(Sender) error, s Sender) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v}
		}
	}()
	return action(s)
}
