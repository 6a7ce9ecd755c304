package bot

import (
	"errors"
	"sync"

	"ttsbot/internal/speech"
)

// ErrInvalidLanguage is returned by Prefs.Set for codes outside the fixed
// supported-language table.
var ErrInvalidLanguage = errors.New("invalid language code")

// Prefs maps a user ID to a language preference. Absent entries mean the
// default language; entries are never deleted.
//
// The dispatch loop is sequential, so the mutex is not load-bearing there;
// it keeps the store safe for tests and auxiliary readers.
type Prefs struct {
	mu sync.RWMutex
	m  map[int64]string
}

func NewPrefs() *Prefs {
	return &Prefs{m: map[int64]string{}}
}

// Get returns the user's language, or the default when never set.
func (p *Prefs) Get(userID int64) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if code, ok := p.m[userID]; ok {
		return code
	}
	return speech.DefaultLanguage
}

// Set stores the preference, rejecting unsupported codes without mutating
// the stored value.
func (p *Prefs) Set(userID int64, code string) error {
	if !speech.Supported(code) {
		return ErrInvalidLanguage
	}
	p.mu.Lock()
	p.m[userID] = code
	p.mu.Unlock()
	return nil
}

// Registry is the set of users seen via /start. Membership is a superset
// heuristic of "can receive a broadcast": it is pruned lazily, only when a
// broadcast send fails, so stale entries persist between broadcasts.
type Registry struct {
	mu sync.Mutex
	m  map[int64]struct{}
}

func NewRegistry() *Registry {
	return &Registry{m: map[int64]struct{}{}}
}

// MarkActive inserts the user; idempotent.
func (r *Registry) MarkActive(userID int64) {
	r.mu.Lock()
	r.m[userID] = struct{}{}
	r.mu.Unlock()
}

// Snapshot returns the current membership in unspecified order.
func (r *Registry) Snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.m))
	for id := range r.m {
		out = append(out, id)
	}
	return out
}

// Remove deletes the user; idempotent.
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	delete(r.m, userID)
	r.mu.Unlock()
}
