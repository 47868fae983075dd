package models

// Role distinguishes the two kinds of users in the system.
type Role string

const (
	// RoleStudent can browse events and register for them.
	RoleStudent Role = "s"
	// RoleOrganizer (host) can create, edit and delete events.
	RoleOrganizer Role = "h"
)

// User represents a user loaded from the user directory file.
// Passwords are stored and compared in plaintext, matching the file format.
type User struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Password string `db:"password"`
	Role     Role   `db:"role"`
}

// IsOrganizer reports whether the user may manage events.
func (u *User) IsOrganizer() bool {
	return u.Role == RoleOrganizer
}

// Event represents a campus event in the catalog.
// Capacity is the number of remaining seats, never negative.
type Event struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Location    string `db:"location"`
	Time        string `db:"time"`
	OrganizerID string `db:"organizer_id"`
	Capacity    int    `db:"capacity"`
}

// IsFull reports whether no seats remain.
func (e *Event) IsFull() bool {
	return e.Capacity <= 0
}

// Registration is one entry in the registration ledger.
// The (StudentID, EventID) pair is unique among live entries; RegisteredAt
// is formatted "2006-01-02 15:04:05" and participates in exact-match removal.
type Registration struct {
	StudentID    string `db:"student_id"`
	EventID      string `db:"event_id"`
	RegisteredAt string `db:"registered_at"`
}

// RegistrationTimeLayout is the timestamp format used in the ledger file.
const RegistrationTimeLayout = "2006-01-02 15:04:05"
