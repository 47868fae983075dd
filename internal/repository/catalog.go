package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/csvstore"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

// eventsHeader is the fixed header of the event catalog file:
// eventId,title,location,time,organizerId,capacity.
const eventsHeader = "活動編號,標題,地點,時間,主辦單位,名額"

// EventCatalog is the CSV-backed EventStore. It owns the in-memory event
// set; every save rewrites the whole backing file so the file always
// reflects exactly the in-memory state.
type EventCatalog struct {
	path    string
	padding int
	log     *zap.Logger

	mu      sync.Mutex
	events  []models.Event
	index   map[string]int
	skipped int
}

// NewEventCatalog creates a catalog backed by the file at path. Call Reload
// before use.
func NewEventCatalog(path string, padding int, log *zap.Logger) *EventCatalog {
	return &EventCatalog{
		path:    path,
		padding: padding,
		log:     log,
		index:   make(map[string]int),
	}
}

// Reload replaces the in-memory catalog with the file contents. A missing
// file is initialised with a bare header. Rows with a non-integer capacity
// are loaded with capacity 0; rows with an empty title are skipped. Both
// malformed and skipped rows are counted, never fatal.
func (c *EventCatalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := csvstore.Read(c.path, 5)
	if os.IsNotExist(err) {
		if err := csvstore.Write(c.path, eventsHeader, nil); err != nil {
			return fmt.Errorf("initialise event catalog: %w", err)
		}
		res = &csvstore.ReadResult{}
	} else if err != nil {
		return fmt.Errorf("load event catalog: %w", err)
	}

	c.events = c.events[:0]
	c.index = make(map[string]int)
	c.skipped = res.Skipped

	for _, row := range res.Rows {
		ev := models.Event{
			ID:          row[0],
			Title:       row[1],
			Location:    row[2],
			Time:        row[3],
			OrganizerID: row[4],
		}
		if ev.Title == "" {
			c.skipped++
			continue
		}
		if len(row) > 5 {
			if n, err := strconv.Atoi(row[5]); err == nil {
				ev.Capacity = n
			}
		}
		c.index[ev.ID] = len(c.events)
		c.events = append(c.events, ev)
	}

	if c.skipped > 0 {
		c.log.Warn("skipped malformed catalog rows",
			zap.String("file", c.path),
			zap.Int("skipped", c.skipped))
	}
	c.log.Debug("event catalog loaded",
		zap.String("file", c.path),
		zap.Int("events", len(c.events)))
	return nil
}

// SkippedRows reports how many rows the last Reload dropped.
func (c *EventCatalog) SkippedRows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipped
}

// Events returns a copy of all events in file order.
func (c *EventCatalog) Events(ctx context.Context) ([]models.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Event, len(c.events))
	copy(out, c.events)
	return out, nil
}

// Event returns a copy of the event with the given id or ErrEventNotFound.
func (c *EventCatalog) Event(ctx context.Context, id string) (*models.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	ev := c.events[i]
	return &ev, nil
}

// NextEventID generates the next unused event id.
func (c *EventCatalog) NextEventID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		ids = append(ids, ev.ID)
	}
	return nextEventID(ids, c.padding), nil
}

// CreateEvent adds the event and persists the catalog. On a save failure
// the in-memory addition is reverted.
func (c *EventCatalog) CreateEvent(ctx context.Context, event *models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[event.ID]; ok {
		return ErrEventExists
	}
	c.index[event.ID] = len(c.events)
	c.events = append(c.events, *event)
	if err := c.save(); err != nil {
		c.events = c.events[:len(c.events)-1]
		delete(c.index, event.ID)
		return err
	}
	return nil
}

// UpdateEvent replaces the stored event with the same id and persists the
// catalog, reverting in memory on a save failure.
func (c *EventCatalog) UpdateEvent(ctx context.Context, event models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[event.ID]
	if !ok {
		return ErrEventNotFound
	}
	prev := c.events[i]
	c.events[i] = event
	if err := c.save(); err != nil {
		c.events[i] = prev
		return err
	}
	return nil
}

// DeleteEvent removes the event and persists the catalog, reverting in
// memory on a save failure.
func (c *EventCatalog) DeleteEvent(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return ErrEventNotFound
	}
	removed := c.events[i]
	c.events = append(c.events[:i], c.events[i+1:]...)
	c.reindex()
	if err := c.save(); err != nil {
		c.events = append(c.events[:i], append([]models.Event{removed}, c.events[i:]...)...)
		c.reindex()
		return err
	}
	return nil
}

// DecrementCapacity takes one seat in memory only; Save persists it.
func (c *EventCatalog) DecrementCapacity(ctx context.Context, id string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return 0, ErrEventNotFound
	}
	c.events[i].Capacity--
	return c.events[i].Capacity, nil
}

// RestoreCapacity gives one seat back in memory only; Save persists it.
func (c *EventCatalog) RestoreCapacity(ctx context.Context, id string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return 0, ErrEventNotFound
	}
	c.events[i].Capacity++
	return c.events[i].Capacity, nil
}

// Save rewrites the whole backing file from the in-memory catalog. The
// organizer is persisted as an id, not a name; display names are resolved
// through the user directory when rendering.
func (c *EventCatalog) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save()
}

// save assumes c.mu is held.
func (c *EventCatalog) save() error {
	rows := make([][]string, 0, len(c.events))
	for _, ev := range c.events {
		rows = append(rows, []string{
			ev.ID,
			ev.Title,
			ev.Location,
			ev.Time,
			ev.OrganizerID,
			strconv.Itoa(ev.Capacity),
		})
	}
	if err := csvstore.Write(c.path, eventsHeader, rows); err != nil {
		return fmt.Errorf("save event catalog: %w", err)
	}
	return nil
}

func (c *EventCatalog) reindex() {
	c.index = make(map[string]int, len(c.events))
	for i, ev := range c.events {
		c.index[ev.ID] = i
	}
}
