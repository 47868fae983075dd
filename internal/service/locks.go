package service

import "sync"

// EventLocks serialises all capacity-relevant traffic per event: one
// in-flight registration, cancellation, edit or delete at a time for a given
// event id. The registration workflow and the event service must share one
// instance, otherwise an edit can land between the workflow's capacity check
// and its decrement and drive the persisted capacity negative. Events are
// independent, so there is no lock ordering to respect.
type EventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEventLocks creates an empty lock set.
func NewEventLocks() *EventLocks {
	return &EventLocks{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for the event id, creating it on first use.
func (l *EventLocks) Get(eventID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	return m
}
