package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/csvstore"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/repository"
)

// exportHeader matches the catalog header but the organizer column carries
// the display name, which is what the exported listing is for.
const exportHeader = "活動編號,標題,地點,時間,主辦單位,名額"

// EventService implements the organizer-facing catalog operations:
// create, edit, delete, search, import and export.
type EventService struct {
	events        repository.EventStore
	registrations repository.RegistrationStore
	identity      IdentityLookup
	locks         *EventLocks
	log           *zap.Logger
}

// NewEventService constructs an EventService. locks must be the same
// instance the registration workflow uses: edits and deletes wait for any
// in-flight registration on the event, so a capacity change can never land
// between the workflow's capacity check and its decrement.
func NewEventService(
	events repository.EventStore,
	registrations repository.RegistrationStore,
	identity IdentityLookup,
	locks *EventLocks,
	log *zap.Logger,
) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		identity:      identity,
		locks:         locks,
		log:           log,
	}
}

func (s *EventService) requireOrganizer(organizer *models.User) error {
	if organizer == nil {
		return fmt.Errorf("no current user, log in again")
	}
	if !organizer.IsOrganizer() {
		return fmt.Errorf("only organizers can manage events")
	}
	return nil
}

func validateEventInput(title string, capacity int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("event title is required")
	}
	if capacity <= 0 {
		return fmt.Errorf("capacity must be a positive integer")
	}
	return nil
}

// CreateEvent validates the input, assigns the next free id and persists
// the new event.
func (s *EventService) CreateEvent(ctx context.Context, organizer *models.User, title, location, when string, capacity int) (*models.Event, error) {
	if err := s.requireOrganizer(organizer); err != nil {
		return nil, err
	}
	if err := validateEventInput(title, capacity); err != nil {
		return nil, err
	}

	id, err := s.events.NextEventID(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	event := &models.Event{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Location:    strings.TrimSpace(location),
		Time:        strings.TrimSpace(when),
		OrganizerID: organizer.ID,
		Capacity:    capacity,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created", zap.String("event", event.ID), zap.String("organizer", organizer.ID))
	return event, nil
}

// UpdateEvent edits an event the organizer owns. The id and owner cannot
// be changed.
func (s *EventService) UpdateEvent(ctx context.Context, organizer *models.User, id, title, location, when string, capacity int) (*models.Event, error) {
	if err := s.requireOrganizer(organizer); err != nil {
		return nil, err
	}
	if err := validateEventInput(title, capacity); err != nil {
		return nil, err
	}

	lock := s.locks.Get(id)
	lock.Lock()
	defer lock.Unlock()

	event, err := s.events.Event(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizer.ID {
		return nil, fmt.Errorf("you can only edit your own events")
	}

	event.Title = strings.TrimSpace(title)
	event.Location = strings.TrimSpace(location)
	event.Time = strings.TrimSpace(when)
	event.Capacity = capacity
	if err := s.events.UpdateEvent(ctx, *event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes an event the organizer owns. Ledger entries for the
// event are left in place and filtered out of record views.
func (s *EventService) DeleteEvent(ctx context.Context, organizer *models.User, id string) error {
	if err := s.requireOrganizer(organizer); err != nil {
		return err
	}

	lock := s.locks.Get(id)
	lock.Lock()
	defer lock.Unlock()

	event, err := s.events.Event(ctx, id)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizer.ID {
		return fmt.Errorf("you can only delete your own events")
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.Info("event deleted", zap.String("event", id), zap.String("organizer", organizer.ID))
	return nil
}

// ListEvents returns all events in catalog order.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.Events(ctx)
}

// ListByOrganizer returns the events owned by the given organizer id.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	events, err := s.events.Events(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Event
	for _, ev := range events {
		if ev.OrganizerID == organizerID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Search filters events by a case-insensitive keyword over title, location,
// time and the organizer's display name. An empty keyword returns all.
func (s *EventService) Search(ctx context.Context, keyword string) ([]models.Event, error) {
	events, err := s.events.Events(ctx)
	if err != nil {
		return nil, err
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return events, nil
	}
	var out []models.Event
	for _, ev := range events {
		organizer := strings.ToLower(s.identity.DisplayName(ctx, ev.OrganizerID))
		if strings.Contains(strings.ToLower(ev.Title), keyword) ||
			strings.Contains(strings.ToLower(ev.Location), keyword) ||
			strings.Contains(strings.ToLower(ev.Time), keyword) ||
			strings.Contains(organizer, keyword) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Attendees lists the registrations of an event the organizer owns, with
// student names resolved for display.
func (s *EventService) Attendees(ctx context.Context, organizer *models.User, eventID string) ([]models.Attendee, error) {
	if err := s.requireOrganizer(organizer); err != nil {
		return nil, err
	}
	event, err := s.events.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizer.ID {
		return nil, fmt.Errorf("you can only view attendees of your own events")
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	out := make([]models.Attendee, 0, len(regs))
	for _, reg := range regs {
		out = append(out, models.Attendee{
			Registration: reg,
			StudentName:  s.identity.DisplayName(ctx, reg.StudentID),
		})
	}
	return out, nil
}

// ImportEvents merges the rows of an external catalog file into the store.
// Malformed rows are skipped, rows with an empty title are skipped, and
// rows whose id is missing or already taken get a freshly generated id.
// Imported events are owned by the importing organizer.
func (s *EventService) ImportEvents(ctx context.Context, organizer *models.User, path string) (*models.ImportResult, error) {
	if err := s.requireOrganizer(organizer); err != nil {
		return nil, err
	}
	res, err := csvstore.Read(path, 5)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	result := &models.ImportResult{Skipped: res.Skipped}
	for _, row := range res.Rows {
		title := row[1]
		if title == "" {
			result.Skipped++
			continue
		}
		capacity := 0
		if len(row) > 5 {
			if n, err := strconv.Atoi(row[5]); err == nil {
				capacity = n
			}
		}

		id := row[0]
		if id == "" {
			id, err = s.events.NextEventID(ctx)
			if err != nil {
				return nil, fmt.Errorf("generate event id: %w", err)
			}
		} else if _, err := s.events.Event(ctx, id); err == nil {
			id, err = s.events.NextEventID(ctx)
			if err != nil {
				return nil, fmt.Errorf("generate event id: %w", err)
			}
			result.Renumbers++
		}

		event := &models.Event{
			ID:          id,
			Title:       title,
			Location:    row[2],
			Time:        row[3],
			OrganizerID: organizer.ID,
			Capacity:    capacity,
		}
		if err := s.events.CreateEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("import event %s: %w", id, err)
		}
		result.Imported++
	}

	s.log.Info("catalog import finished",
		zap.String("file", path),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("renumbered", result.Renumbers))
	return result, nil
}

// ExportEvents writes the current catalog to path with the organizer
// column rendered as a display name, matching the exported listing format.
func (s *EventService) ExportEvents(ctx context.Context, path string) error {
	events, err := s.events.Events(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			ev.ID,
			ev.Title,
			ev.Location,
			ev.Time,
			s.identity.DisplayName(ctx, ev.OrganizerID),
			strconv.Itoa(ev.Capacity),
		})
	}
	if err := csvstore.Write(path, exportHeader, rows); err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	return nil
}
