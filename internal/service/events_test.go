package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/repository"
)

func newTestEventService(t *testing.T) (*EventService, *storeFixture) {
	t.Helper()
	f := newStoreFixture(t)
	return NewEventService(f.catalog, f.ledger, f.users, NewEventLocks(), zap.NewNop()), f
}

func organizer(id string) *models.User {
	return &models.User{ID: id, Name: "李老師", Role: models.RoleOrganizer}
}

func student(id string) *models.User {
	return &models.User{ID: id, Name: "王小明", Role: models.RoleStudent}
}

func TestCreateEventAssignsIDAndTrims(t *testing.T) {
	ctx := context.Background()
	s, f := newTestEventService(t)

	ev, err := s.CreateEvent(ctx, organizer("T01"), " 書展 ", " 圖書館 ", " 2026-09-01 10:00 ", 30)
	require.NoError(t, err)
	assert.Equal(t, "A001", ev.ID)
	assert.Equal(t, "書展", ev.Title)
	assert.Equal(t, "圖書館", ev.Location)
	assert.Equal(t, "T01", ev.OrganizerID)

	ev, err = s.CreateEvent(ctx, organizer("T01"), "演講", "大禮堂", "2026-09-02 14:00", 50)
	require.NoError(t, err)
	assert.Equal(t, "A002", ev.ID)

	got, err := f.catalog.Event(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, 30, got.Capacity)
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestEventService(t)

	_, err := s.CreateEvent(ctx, nil, "書展", "", "", 10)
	assert.Error(t, err)
	_, err = s.CreateEvent(ctx, student("S1"), "書展", "", "", 10)
	assert.ErrorContains(t, err, "only organizers")
	_, err = s.CreateEvent(ctx, organizer("T01"), "   ", "", "", 10)
	assert.ErrorContains(t, err, "title")
	_, err = s.CreateEvent(ctx, organizer("T01"), "書展", "", "", 0)
	assert.ErrorContains(t, err, "capacity")
}

func TestUpdateEventOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestEventService(t)

	ev, err := s.CreateEvent(ctx, organizer("T01"), "書展", "圖書館", "2026-09-01 10:00", 30)
	require.NoError(t, err)

	_, err = s.UpdateEvent(ctx, organizer("T02"), ev.ID, "改名", "圖書館", "2026-09-01 10:00", 30)
	assert.ErrorContains(t, err, "your own events")

	updated, err := s.UpdateEvent(ctx, organizer("T01"), ev.ID, "秋季書展", "圖書館", "2026-09-01 10:00", 40)
	require.NoError(t, err)
	assert.Equal(t, "秋季書展", updated.Title)
	assert.Equal(t, 40, updated.Capacity)
	assert.Equal(t, "T01", updated.OrganizerID, "ownership never changes on edit")

	_, err = s.UpdateEvent(ctx, organizer("T01"), "A999", "x", "", "", 1)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestDeleteEventOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	s, f := newTestEventService(t)

	ev, err := s.CreateEvent(ctx, organizer("T01"), "書展", "圖書館", "2026-09-01 10:00", 30)
	require.NoError(t, err)

	assert.ErrorContains(t, s.DeleteEvent(ctx, organizer("T02"), ev.ID), "your own events")
	require.NoError(t, s.DeleteEvent(ctx, organizer("T01"), ev.ID))

	_, err = f.catalog.Event(ctx, ev.ID)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	assert.ErrorIs(t, s.DeleteEvent(ctx, organizer("T01"), ev.ID), repository.ErrEventNotFound)
}

func TestListByOrganizer(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestEventService(t)

	_, err := s.CreateEvent(ctx, organizer("T01"), "書展", "", "", 10)
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, organizer("T02"), "演講", "", "", 10)
	require.NoError(t, err)

	mine, err := s.ListByOrganizer(ctx, "T01")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "書展", mine[0].Title)
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestEventService(t)

	_, err := s.CreateEvent(ctx, organizer("T01"), "書展", "圖書館", "2026-09-01 10:00", 10)
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, organizer("T01"), "Tech Talk", "大禮堂", "2026-09-02 14:00", 10)
	require.NoError(t, err)

	all, err := s.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byTitle, err := s.Search(ctx, "書展")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "A001", byTitle[0].ID)

	byLocation, err := s.Search(ctx, "大禮堂")
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.Equal(t, "A002", byLocation[0].ID)

	caseInsensitive, err := s.Search(ctx, "tech TALK")
	require.NoError(t, err)
	assert.Len(t, caseInsensitive, 1)

	// The organizer column is searched by display name, not id.
	byOrganizer, err := s.Search(ctx, "李老師")
	require.NoError(t, err)
	assert.Len(t, byOrganizer, 2)

	none, err := s.Search(ctx, "nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAttendeesResolvesNamesAndEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	s, f := newTestEventService(t)

	ev, err := s.CreateEvent(ctx, organizer("T01"), "書展", "", "", 10)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Append(ctx, models.Registration{
		StudentID: "S1", EventID: ev.ID, RegisteredAt: "2026-09-01 10:00:00"}))
	require.NoError(t, f.ledger.Append(ctx, models.Registration{
		StudentID: "S9", EventID: ev.ID, RegisteredAt: "2026-09-01 10:05:00"}))

	_, err = s.Attendees(ctx, organizer("T02"), ev.ID)
	assert.ErrorContains(t, err, "your own events")
	_, err = s.Attendees(ctx, student("S1"), ev.ID)
	assert.ErrorContains(t, err, "only organizers")

	attendees, err := s.Attendees(ctx, organizer("T01"), ev.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 2)
	assert.Equal(t, "王小明", attendees[0].StudentName)
	assert.Equal(t, "S9", attendees[1].StudentName, "unknown students show their id")
}

func TestImportEvents(t *testing.T) {
	ctx := context.Background()
	s, f := newTestEventService(t)

	_, err := s.CreateEvent(ctx, organizer("T01"), "既有活動", "", "", 5)
	require.NoError(t, err)

	importPath := filepath.Join(t.TempDir(), "import.csv")
	content := "活動編號,標題,地點,時間,主辦單位,名額\n" +
		"A005,書展,圖書館,2026-09-01 10:00,ignored,30\n" +
		",無編號活動,大禮堂,2026-09-02 14:00,ignored,20\n" +
		"A001,撞號活動,操場,2026-09-03 09:00,ignored,15\n" +
		"A009,,操場,2026-09-03 09:00,ignored,15\n" +
		"badrow\n"
	require.NoError(t, os.WriteFile(importPath, []byte(content), 0o644))

	res, err := s.ImportEvents(ctx, organizer("T02"), importPath)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Renumbers)

	events, err := f.catalog.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	existing, err := f.catalog.Event(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, "既有活動", existing.Title, "a colliding import must not clobber the event")

	imported, err := f.catalog.Event(ctx, "A005")
	require.NoError(t, err)
	assert.Equal(t, "書展", imported.Title)
	assert.Equal(t, 30, imported.Capacity)
	assert.Equal(t, "T02", imported.OrganizerID, "imports belong to the importer")

	_, err = s.ImportEvents(ctx, student("S1"), importPath)
	assert.ErrorContains(t, err, "only organizers")
	_, err = s.ImportEvents(ctx, organizer("T01"), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestExportEventsUsesDisplayNames(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestEventService(t)

	_, err := s.CreateEvent(ctx, organizer("T01"), "書展", "圖書館", "2026-09-01 10:00", 30)
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, s.ExportEvents(ctx, exportPath))

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Equal(t, exportHeader+"\nA001,書展,圖書館,2026-09-01 10:00,李老師,30\n", string(data))
}
