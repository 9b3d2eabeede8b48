package chat

import "sync"

// WarnLimit is the warning count at which a user is banned.
const WarnLimit = 4

// Moderation tracks the ban set, the mute set, and per-user warning
// counters. It outlives individual sessions: entries are process-wide state
// cleared only by explicit admin action or restart. The ban set only grows;
// no unban operation exists.
type Moderation struct {
	mu       sync.Mutex
	banned   map[string]struct{}
	muted    map[string]struct{}
	warnings map[string]int
}

// NewModeration returns an empty moderation store.
func NewModeration() *Moderation {
	return &Moderation{
		banned:   make(map[string]struct{}),
		muted:    make(map[string]struct{}),
		warnings: make(map[string]int),
	}
}

// IsBanned reports whether name is banned.
func (m *Moderation) IsBanned(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.banned[name]
	return ok
}

// Ban adds name to the ban set.
func (m *Moderation) Ban(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.banned[name] = struct{}{}
}

// IsMuted reports whether name is muted.
func (m *Moderation) IsMuted(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.muted[name]
	return ok
}

// Mute adds name to the mute set.
func (m *Moderation) Mute(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.muted[name] = struct{}{}
}

// Unmute removes name from the mute set. Returns false if it was not muted.
func (m *Moderation) Unmute(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.muted[name]; !ok {
		return false
	}
	delete(m.muted, name)
	return true
}

// Warn increments name's warning counter and returns the new count.
// The caller decides whether the count has crossed WarnLimit.
func (m *Moderation) Warn(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.warnings[name]++
	return m.warnings[name]
}

// Warnings returns name's current warning count.
func (m *Moderation) Warnings(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.warnings[name]
}

// InitWarnings ensures name has a warning counter, starting at zero.
func (m *Moderation) InitWarnings(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.warnings[name]; !ok {
		m.warnings[name] = 0
	}
}

// Forget drops name's warning counter and mute entry. Called on session
// teardown; the ban set is deliberately left untouched.
func (m *Moderation) Forget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.warnings, name)
	delete(m.muted, name)
}
