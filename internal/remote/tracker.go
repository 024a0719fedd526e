package remote

import (
	"context"
	"sync"
)

// Tracker keeps the latest status of every command in flight.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

func NewTracker() *Tracker {
	return &Tracker{statuses: make(map[string]Status)}
}

// Track starts following eventID.
func (t *Tracker) Track(eventID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[eventID] = Status{EventID: eventID, State: StateUnknown}
}

// Record stores st if its event is tracked and reports whether it was.
func (t *Tracker) Record(st Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.statuses[st.EventID]; !ok {
		return false
	}
	t.statuses[st.EventID] = st
	return true
}

// Fetch returns the latest status of eventID. It satisfies FetchFunc.
func (t *Tracker) Fetch(_ context.Context, eventID string) (Status, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.statuses[eventID]
	if !ok {
		return Status{EventID: eventID, State: StateUnknown}, nil
	}
	return st, nil
}

// Forget stops following eventID.
func (t *Tracker) Forget(eventID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, eventID)
}

// Len returns the number of commands in flight.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.statuses)
}
