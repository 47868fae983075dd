// Package repository defines the store interfaces for the event catalog,
// the registration ledger and the user directory, together with their CSV
// implementations (canonical) and an embedded SQLite implementation.
package repository

import (
	"context"
	"errors"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

// ErrEventNotFound is returned when a requested event id is absent.
var ErrEventNotFound = errors.New("event not found")

// ErrEventExists is returned when creating an event whose id is taken.
var ErrEventExists = errors.New("event id already exists")

// ErrUserNotFound is returned when a user id is absent from the directory.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned when the password does not match.
var ErrInvalidCredentials = errors.New("invalid user id or password")

// EventStore holds the event catalog.
//
// For the CSV implementation, Create/Update/Delete persist immediately with
// a full rewrite, while DecrementCapacity and RestoreCapacity only touch the
// in-memory state: the registration workflow calls Save separately so it can
// roll the counter back if persisting either file fails. The SQLite
// implementation is durable on every call and treats Reload and Save as
// no-ops.
type EventStore interface {
	Reload(ctx context.Context) error
	Events(ctx context.Context) ([]models.Event, error)
	Event(ctx context.Context, id string) (*models.Event, error)
	NextEventID(ctx context.Context) (string, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event models.Event) error
	DeleteEvent(ctx context.Context, id string) error

	// DecrementCapacity reduces the remaining seats by one and returns the
	// new value. The caller must already have checked capacity > 0; the
	// single-writer discipline in the workflow makes a re-check redundant.
	DecrementCapacity(ctx context.Context, id string) (int, error)
	RestoreCapacity(ctx context.Context, id string) (int, error)
	Save(ctx context.Context) error
}

// RegistrationStore holds the registration ledger.
type RegistrationStore interface {
	IsRegistered(ctx context.Context, studentID, eventID string) (bool, error)
	Registration(ctx context.Context, studentID, eventID string) (*models.Registration, error)
	Append(ctx context.Context, reg models.Registration) error

	// Remove deletes the entries exactly matching the full triple and
	// reports whether anything was removed. Removing an absent entry is a
	// no-op, not an error.
	Remove(ctx context.Context, reg models.Registration) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error)
}

// UserStore resolves and authenticates users.
type UserStore interface {
	User(ctx context.Context, id string) (*models.User, error)

	// DisplayName returns the user's name, falling back to the id itself
	// when the id is unknown.
	DisplayName(ctx context.Context, id string) string
	Authenticate(ctx context.Context, id, password string) (*models.User, error)
}
