package authoring

import (
	"context"

	"github.com/afikmenashe/roadcrew/internal/apperr"
	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/fanout"
	"github.com/afikmenashe/roadcrew/internal/preferences"
)

type fakeStore struct {
	members   map[string]*database.Member
	events    map[string]*database.ScheduleEvent
	changes   []*events.ChangeEvent
	scheduled []*database.ScheduledMessage
	reminders []*database.ReminderSubscription
	prefs     map[string]preferences.Preference
	deleted   []string

	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: map[string]*database.Member{
			"tour-1/user-tm":  {TourID: "tour-1", UserID: "user-tm", Role: database.RoleManager},
			"tour-1/user-foh": {TourID: "tour-1", UserID: "user-foh", Role: database.RoleCrew},
		},
		events: map[string]*database.ScheduleEvent{
			"evt-1": {EventID: "evt-1", TourID: "tour-1", Title: "Columbiahalle"},
		},
		prefs: map[string]preferences.Preference{},
	}
}

func (f *fakeStore) GetMember(_ context.Context, tourID, userID string) (*database.Member, error) {
	if m, ok := f.members[tourID+"/"+userID]; ok {
		return m, nil
	}
	return nil, apperr.NotFound("member", userID)
}

func (f *fakeStore) InsertChange(_ context.Context, e *events.ChangeEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	e.ID = "chg-new"
	f.changes = append(f.changes, e)
	return nil
}

func (f *fakeStore) InsertScheduledMessage(_ context.Context, m *database.ScheduledMessage) error {
	m.MessageID = "msg-new"
	f.scheduled = append(f.scheduled, m)
	return nil
}

func (f *fakeStore) GetScheduleEvent(_ context.Context, eventID string) (*database.ScheduleEvent, error) {
	if e, ok := f.events[eventID]; ok {
		return e, nil
	}
	return nil, apperr.NotFound("schedule event", eventID)
}

func (f *fakeStore) UpsertReminder(_ context.Context, r *database.ReminderSubscription) error {
	r.ReminderID = "rem-new"
	f.reminders = append(f.reminders, r)
	return nil
}

func (f *fakeStore) DeletePendingScheduledMessage(_ context.Context, messageID, userID string) error {
	if messageID != "msg-1" {
		return apperr.NotFound("scheduled message", messageID)
	}
	f.deleted = append(f.deleted, messageID+"/"+userID)
	return nil
}

func (f *fakeStore) GetUserPreference(_ context.Context, tourID, userID string) (*preferences.Preference, error) {
	if p, ok := f.prefs[tourID+"/"+userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeStore) GetTourDefaultPreference(context.Context, string) (*preferences.Preference, error) {
	return nil, nil
}

func (f *fakeStore) UpsertPreference(_ context.Context, tourID, userID string, p preferences.Preference) error {
	f.prefs[tourID+"/"+userID] = p
	return nil
}

type fakePublisher struct {
	err       error
	published []*events.ChangeEvent
}

func (f *fakePublisher) Publish(_ context.Context, e *events.ChangeEvent) error {
	f.published = append(f.published, e)
	return f.err
}

type fakeFanout struct {
	calls []string
}

func (f *fakeFanout) Fanout(_ context.Context, callerID, tourID string) (fanout.Result, error) {
	f.calls = append(f.calls, callerID+"/"+tourID)
	return fanout.Result{Sent: 1, Processed: 1}, nil
}

type fakeRefresher struct {
	users []string
}

func (f *fakeRefresher) Refresh(_ context.Context, userID string) error {
	f.users = append(f.users, userID)
	return nil
}
