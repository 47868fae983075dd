// Package service implements the business operations on top of the stores:
// the registration workflow, event management and login.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/repository"
)

// IdentityLookup resolves a user id to a display name, falling back to the
// id itself when unknown. It keeps name rendering out of the stores.
type IdentityLookup interface {
	DisplayName(ctx context.Context, id string) string
}

// RegistrationWorkflow enforces the registration invariants: a student
// registers for an event at most once, capacity never goes negative, and
// the catalog and ledger files stay consistent with each other.
//
// Each attempt moves through checking, then terminates as duplicate, full,
// committed or failed. The commit order is decrement (memory), ledger
// append, catalog save; on an I/O failure the decrement is rolled back so
// the in-memory capacity matches what is on disk. Capacity is therefore
// never persisted as negative, at the cost of a narrow window where the
// seat is taken in memory but the ledger entry is not yet durable; there is
// no crash-recovery log to close that window.
type RegistrationWorkflow struct {
	events          repository.EventStore
	registrations   repository.RegistrationStore
	identity        IdentityLookup
	restoreOnCancel bool
	locks           *EventLocks
	log             *zap.Logger
	now             func() time.Time
}

// NewRegistrationWorkflow creates the workflow. restoreOnCancel controls
// whether cancelling a registration gives the seat back. locks must be the
// same instance the event service uses so edits cannot interleave with an
// in-flight registration.
func NewRegistrationWorkflow(
	events repository.EventStore,
	registrations repository.RegistrationStore,
	identity IdentityLookup,
	restoreOnCancel bool,
	locks *EventLocks,
	log *zap.Logger,
) *RegistrationWorkflow {
	return &RegistrationWorkflow{
		events:          events,
		registrations:   registrations,
		identity:        identity,
		restoreOnCancel: restoreOnCancel,
		locks:           locks,
		log:             log,
		now:             time.Now,
	}
}

// Register attempts to register the student for the event. Duplicate and
// full are normal outcomes carried in the result; errors are reserved for
// an unknown event and I/O failures.
func (w *RegistrationWorkflow) Register(ctx context.Context, studentID, eventID string) (*models.RegistrationResult, error) {
	if studentID == "" {
		return nil, fmt.Errorf("student id is required")
	}
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	lock := w.locks.Get(eventID)
	lock.Lock()
	defer lock.Unlock()

	event, err := w.events.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := w.registrations.Registration(ctx, studentID, eventID)
	if err != nil {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	if existing != nil {
		return &models.RegistrationResult{
			Status:       models.StatusDuplicate,
			Event:        *event,
			Registration: *existing,
			Remaining:    event.Capacity,
		}, nil
	}

	if event.IsFull() {
		return &models.RegistrationResult{
			Status:    models.StatusFull,
			Event:     *event,
			Remaining: event.Capacity,
		}, nil
	}

	remaining, err := w.events.DecrementCapacity(ctx, eventID)
	if err != nil {
		return nil, err
	}

	reg := models.Registration{
		StudentID:    studentID,
		EventID:      eventID,
		RegisteredAt: w.now().Format(models.RegistrationTimeLayout),
	}
	if err := w.registrations.Append(ctx, reg); err != nil {
		if _, rbErr := w.events.RestoreCapacity(ctx, eventID); rbErr != nil {
			w.log.Error("capacity rollback failed after append error",
				zap.String("event", eventID), zap.Error(rbErr))
		}
		return nil, fmt.Errorf("could not save registration, try again: %w", err)
	}

	if err := w.events.Save(ctx); err != nil {
		if _, rbErr := w.events.RestoreCapacity(ctx, eventID); rbErr != nil {
			w.log.Error("capacity rollback failed after save error",
				zap.String("event", eventID), zap.Error(rbErr))
		}
		// Best effort: take the just-appended entry back out so the two
		// files do not disagree about this student.
		if _, rmErr := w.registrations.Remove(ctx, reg); rmErr != nil {
			w.log.Error("ledger rollback failed after save error",
				zap.String("event", eventID), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("could not save event catalog, try again: %w", err)
	}

	w.log.Info("registration committed",
		zap.String("student", studentID),
		zap.String("event", eventID),
		zap.Int("remaining", remaining))

	event.Capacity = remaining
	return &models.RegistrationResult{
		Status:       models.StatusCommitted,
		Event:        *event,
		Registration: reg,
		Remaining:    remaining,
	}, nil
}

// Cancel removes the ledger entry exactly matching the triple. A missing
// entry is a no-op. When restore-on-cancel is enabled the seat is given
// back and the catalog saved; after a cancellation the student may register
// for the same event again.
func (w *RegistrationWorkflow) Cancel(ctx context.Context, studentID, eventID, registeredAt string) (*models.CancellationResult, error) {
	if studentID == "" || eventID == "" || registeredAt == "" {
		return nil, fmt.Errorf("student id, event id and registration time are all required")
	}

	lock := w.locks.Get(eventID)
	lock.Lock()
	defer lock.Unlock()

	removed, err := w.registrations.Remove(ctx, models.Registration{
		StudentID:    studentID,
		EventID:      eventID,
		RegisteredAt: registeredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel registration: %w", err)
	}

	res := &models.CancellationResult{Removed: removed}
	if event, err := w.events.Event(ctx, eventID); err == nil {
		res.Remaining = event.Capacity
	}
	if !removed {
		return res, nil
	}

	if w.restoreOnCancel {
		remaining, err := w.events.RestoreCapacity(ctx, eventID)
		if err == nil {
			err = w.events.Save(ctx)
			if err != nil {
				if _, rbErr := w.events.DecrementCapacity(ctx, eventID); rbErr != nil {
					w.log.Error("capacity rollback failed after save error",
						zap.String("event", eventID), zap.Error(rbErr))
				}
			}
		}
		if err != nil && !errors.Is(err, repository.ErrEventNotFound) {
			return nil, fmt.Errorf("restore capacity: %w", err)
		}
		if err == nil {
			res.Restored = true
			res.Remaining = remaining
		}
	}

	w.log.Info("registration cancelled",
		zap.String("student", studentID),
		zap.String("event", eventID),
		zap.Bool("restored", res.Restored))
	return res, nil
}

// Records returns the student's registrations joined with their events for
// display, skipping ledger entries whose event no longer exists.
func (w *RegistrationWorkflow) Records(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	if studentID == "" {
		return nil, fmt.Errorf("student id is required")
	}
	regs, err := w.registrations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	var out []models.RegistrationDetail
	for _, reg := range regs {
		event, err := w.events.Event(ctx, reg.EventID)
		if errors.Is(err, repository.ErrEventNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, models.RegistrationDetail{
			Registration: reg,
			Event:        *event,
			Organizer:    w.identity.DisplayName(ctx, event.OrganizerID),
		})
	}
	return out, nil
}
