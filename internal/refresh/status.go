package refresh

import (
	"time"
)

// Progress values reported by the backend runner. Anything strictly between
// the two is a progress tick that carries no state transition.
const (
	// ProgressStarted is reported when an operation begins.
	ProgressStarted = 0

	// ProgressComplete is reported when an operation finishes.
	ProgressComplete = 100
)

// Status tracks the refresh state machine for a single target (an account or
// a mailbox). A target is "active" from the moment a caller requests a
// refresh until the backend reports a terminating callback; the backend
// confirming the start flips it from merely requested to refreshing.
//
// A refresh can also become active without a request: timer-driven refreshes
// report progress through the same callbacks, in which case refreshing is
// set with requested still false.
//
// Status values are owned by the coordinator actor and are only mutated from
// its goroutine.
type Status struct {
	// requested is true once a refresh has been asked for and has not
	// yet completed.
	requested bool

	// refreshing is true once the backend confirmed the operation
	// started.
	refreshing bool

	// lastCompletion is the time of the last terminating callback. The
	// zero time means the target has never completed.
	lastCompletion time.Time
}

// IsActive returns true while a refresh is requested or in progress.
func (s *Status) IsActive() bool {
	return s.requested || s.refreshing
}

// CanStart returns true if a new refresh may be requested for this target.
func (s *Status) CanStart() bool {
	return !s.IsActive()
}

// LastCompletion returns the time of the last terminating callback, or the
// zero time if there has been none.
func (s *Status) LastCompletion() time.Time {
	return s.lastCompletion
}

// markRequested records that a refresh was requested. Idempotent.
func (s *Status) markRequested() {
	s.requested = true
}

// applyProgress advances the state machine from a backend progress report.
// No error with progress 0 means the operation started; an error or progress
// 100 means it finished (successfully or not) and stamps the completion
// time. Every other report is a pure progress tick and changes nothing.
func (s *Status) applyProgress(opErr error, progress int, clock Clock) {
	switch {
	case opErr == nil && progress == ProgressStarted:
		s.refreshing = true

	case opErr != nil || progress == ProgressComplete:
		s.refreshing = false
		s.requested = false
		s.lastCompletion = clock.Now()
	}
}

// snapshot returns a copyable view of the status for callers outside the
// coordinator goroutine.
func (s *Status) snapshot() StatusSnapshot {
	return StatusSnapshot{
		Requested:      s.requested,
		Refreshing:     s.refreshing,
		LastCompletion: s.lastCompletion,
	}
}

// StatusSnapshot is a read-only copy of a target's Status, used for
// inspection and tests.
type StatusSnapshot struct {
	Requested      bool
	Refreshing     bool
	LastCompletion time.Time
}

// IsActive mirrors Status.IsActive for snapshots.
func (s StatusSnapshot) IsActive() bool {
	return s.Requested || s.Refreshing
}

// statusMap is a lazily populated map of target id to Status. Lookups never
// fail: a missing key yields a fresh default Status that is then retained
// for the lifetime of the owning coordinator. Entries are never removed.
type statusMap struct {
	entries map[int64]*Status
}

func newStatusMap() *statusMap {
	return &statusMap{
		entries: make(map[int64]*Status),
	}
}

// get returns the Status for id, creating it on first reference.
func (m *statusMap) get(id int64) *Status {
	st, ok := m.entries[id]
	if !ok {
		st = &Status{}
		m.entries[id] = st
	}

	return st
}

// anyActive returns true iff any stored Status is active.
func (m *statusMap) anyActive() bool {
	for _, st := range m.entries {
		if st.IsActive() {
			return true
		}
	}

	return false
}
