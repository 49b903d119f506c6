// Package timekeeper implements the named-timer registry of
// spec.md §5/§9, grounded on the original's TimeKeeper singleton
// (time_keeper.hpp): a map from timer name to accumulated seconds, plus an
// independent set of currently-running timers keyed by name so multiple
// callers can time the same named phase concurrently without clobbering
// each other's start time.
package timekeeper

import (
	"sync"
	"time"
)

// Registry is a named-timer bookkeeper. The zero value is not usable;
// construct with New. There is no package-level global: each owner builds
// its own (search.Run creates one per call), so concurrent runs do not
// share timer state.
type Registry struct {
	mu       sync.Mutex
	active   map[string][]time.Time // name -> stack of start times for concurrently running timers
	totals   map[string]time.Duration
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		active: make(map[string][]time.Time),
		totals: make(map[string]time.Duration),
	}
}

// SetActive starts a new running interval for name. Multiple concurrent
// starts under the same name are tracked independently (stacked) so
// Remove/Stop order does not need to match Start order across goroutines.
func (r *Registry) SetActive(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[name] = append(r.active[name], time.Now())
}

// SetInactive stops the most recently started running interval for name and
// accumulates its duration into the total. It is a no-op if name has no
// active interval.
func (r *Registry) SetInactive(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stack := r.active[name]
	if len(stack) == 0 {
		return
	}
	start := stack[len(stack)-1]
	r.active[name] = stack[:len(stack)-1]
	r.totals[name] += time.Since(start)
}

// Time returns the accumulated duration recorded for name across every
// completed interval.
func (r *Registry) Time(name string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals[name]
}

// Increment adds d directly to name's total, for callers that measure
// elapsed time themselves (e.g. a sub-process's reported wall time) rather
// than bracketing with SetActive/SetInactive.
func (r *Registry) Increment(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals[name] += d
}

// Reset clears the accumulated total and any running state for name.
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, name)
	delete(r.totals, name)
}

// ResetAll clears every timer in the registry.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = make(map[string][]time.Time)
	r.totals = make(map[string]time.Duration)
}

// Remove deletes name's bookkeeping entirely (distinct from Reset only in
// intent: Remove signals the name will not be reused, Reset signals a fresh
// measurement cycle is starting for the same name).
func (r *Registry) Remove(name string) {
	r.Reset(name)
}

// RemoveAll removes every tracked timer name.
func (r *Registry) RemoveAll() {
	r.ResetAll()
}

// Scoped starts name and returns a function that stops it; deferring the
// returned function guarantees SetInactive runs on every exit path
// (including panics), matching spec.md §5's "scoped timer runner".
func (r *Registry) Scoped(name string) func() {
	r.SetActive(name)
	return func() { r.SetInactive(name) }
}
