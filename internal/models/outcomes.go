package models

// RegistrationStatus is the terminal state of a registration attempt.
type RegistrationStatus string

const (
	// StatusCommitted means the seat was taken and both files were persisted.
	StatusCommitted RegistrationStatus = "committed"
	// StatusDuplicate means the student is already registered. Not an error.
	StatusDuplicate RegistrationStatus = "duplicate"
	// StatusFull means the event has no seats left. Not an error.
	StatusFull RegistrationStatus = "full"
)

// RegistrationResult is the tagged outcome of a registration attempt.
// Callers branch on Status rather than on errors; I/O failures are
// returned separately as errors.
type RegistrationResult struct {
	Status       RegistrationStatus
	Event        Event
	Registration Registration // the new entry, or the existing one on duplicate
	Remaining    int          // seats left after the attempt
}

// CancellationResult reports the outcome of a cancellation.
// Removed is false when no matching ledger entry existed; that is a no-op,
// not a failure.
type CancellationResult struct {
	Removed   bool
	Restored  bool // capacity was given back (configurable behavior)
	Remaining int  // seats left after the cancellation
}

// ImportResult summarises a catalog CSV import for diagnostics.
type ImportResult struct {
	Imported  int
	Skipped   int
	Renumbers int // rows whose id collided and was regenerated
}

// RegistrationDetail joins a ledger entry with its event for display,
// with the organizer resolved to a display name.
type RegistrationDetail struct {
	Registration Registration
	Event        Event
	Organizer    string
}

// Attendee is one registration on an event's list, with the student
// resolved to a display name.
type Attendee struct {
	Registration Registration
	StudentName  string
}
