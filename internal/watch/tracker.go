package watch

import (
	"sync"
	"time"
)

// Change is the outcome of running one observed value through the detector.
// Old and New are only meaningful when Changed is true.
type Change struct {
	Changed bool
	Old     string
	New     string
}

// Tracker is the single source of truth for the watched channel's name.
// Both detection paths (REST poll and Gateway push) report observations
// here; the tracker decides which ones represent a genuine change.
//
// All methods are safe for concurrent use. The mutex covers the whole
// read-compare-write sequence so that two paths racing to report the same
// change produce exactly one Changed result.
type Tracker struct {
	mu          sync.Mutex
	name        string
	known       bool
	lastUpdated time.Time
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records a newly observed channel name and reports whether it is a
// genuine change. The first non-empty observation establishes the baseline
// and never reports a change. An empty name (failed or partial fetch) is
// treated as "no information" and leaves the state untouched.
func (t *Tracker) Observe(name string) Change {
	if name == "" {
		return Change{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.known {
		t.name = name
		t.known = true
		t.lastUpdated = time.Now()
		return Change{}
	}
	if name == t.name {
		return Change{}
	}

	old := t.name
	t.name = name
	t.lastUpdated = time.Now()
	return Change{Changed: true, Old: old, New: name}
}

// Snapshot returns the current known name, whether a baseline has been
// established, and when the state last changed.
func (t *Tracker) Snapshot() (name string, known bool, lastUpdated time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name, t.known, t.lastUpdated
}
