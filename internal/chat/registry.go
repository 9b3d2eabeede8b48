package chat

import "sync"

// Registry maps online usernames to their channels. At most one live entry
// exists per username; entries mirror session lifetime exactly.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Channel
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Channel)}
}

// TryRegister claims name for ch. Check and insert happen in one critical
// section, so of two concurrent attempts on the same free name exactly one
// succeeds.
func (r *Registry) TryRegister(name string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[name]; taken {
		return false
	}
	r.byName[name] = ch
	r.order = append(r.order, name)
	return true
}

// Lookup returns the channel registered for name, if any.
func (r *Registry) Lookup(name string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.byName[name]
	return ch, ok
}

// Remove deletes name from the registry. Returns false if it was absent.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; !ok {
		return false
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns the registered usernames in insertion order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered usernames.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byName)
}

// entry pairs a username with its channel for fan-out snapshots.
type entry struct {
	name string
	ch   Channel
}

// entries returns a consistent (name, channel) snapshot in insertion order.
func (r *Registry) entries() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, entry{name: name, ch: r.byName[name]})
	}
	return out
}
