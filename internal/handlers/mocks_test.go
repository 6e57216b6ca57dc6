package handlers

import (
	"context"

	"github.com/afikmenashe/roadcrew/internal/authoring"
	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/fanout"
	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/pkg/metrics"
)

// mockAuthoring implements Authoring; set the Fn fields to control behavior.
type mockAuthoring struct {
	RecordChangeFn    func(ctx context.Context, authorID string, in authoring.ChangeInput) (*authoring.RecordResult, error)
	ScheduleMessageFn func(ctx context.Context, userID string, in authoring.ScheduleInput) (*database.ScheduledMessage, error)
	CancelFn          func(ctx context.Context, userID, messageID string) error
	SaveReminderFn    func(ctx context.Context, userID string, in authoring.ReminderInput) (*database.ReminderSubscription, error)
	GetPreferenceFn   func(ctx context.Context, tourID, userID string) (preferences.Preference, error)
	SavePreferenceFn  func(ctx context.Context, tourID, userID string, p preferences.Preference) (preferences.Preference, error)
}

func (m *mockAuthoring) RecordChange(ctx context.Context, authorID string, in authoring.ChangeInput) (*authoring.RecordResult, error) {
	if m.RecordChangeFn != nil {
		return m.RecordChangeFn(ctx, authorID, in)
	}
	return &authoring.RecordResult{Change: &events.ChangeEvent{ID: "change-1", TourID: in.TourID, AuthorID: authorID}}, nil
}

func (m *mockAuthoring) ScheduleMessage(ctx context.Context, userID string, in authoring.ScheduleInput) (*database.ScheduledMessage, error) {
	if m.ScheduleMessageFn != nil {
		return m.ScheduleMessageFn(ctx, userID, in)
	}
	return &database.ScheduledMessage{MessageID: "msg-1", UserID: userID, Phone: in.Phone, Body: in.Body, SendAt: in.SendAt}, nil
}

func (m *mockAuthoring) CancelScheduledMessage(ctx context.Context, userID, messageID string) error {
	if m.CancelFn != nil {
		return m.CancelFn(ctx, userID, messageID)
	}
	return nil
}

func (m *mockAuthoring) SaveReminder(ctx context.Context, userID string, in authoring.ReminderInput) (*database.ReminderSubscription, error) {
	if m.SaveReminderFn != nil {
		return m.SaveReminderFn(ctx, userID, in)
	}
	return &database.ReminderSubscription{EventID: in.EventID, UserID: userID, Enabled: in.Enabled, RemindType: in.RemindType}, nil
}

func (m *mockAuthoring) GetPreference(ctx context.Context, tourID, userID string) (preferences.Preference, error) {
	if m.GetPreferenceFn != nil {
		return m.GetPreferenceFn(ctx, tourID, userID)
	}
	return preferences.Defaults(), nil
}

func (m *mockAuthoring) SavePreference(ctx context.Context, tourID, userID string, p preferences.Preference) (preferences.Preference, error) {
	if m.SavePreferenceFn != nil {
		return m.SavePreferenceFn(ctx, tourID, userID, p)
	}
	return p, nil
}

// mockFanout implements FanoutRunner.
type mockFanout struct {
	FanoutFn func(ctx context.Context, callerID, tourID string) (fanout.Result, error)
}

func (m *mockFanout) Fanout(ctx context.Context, callerID, tourID string) (fanout.Result, error) {
	if m.FanoutFn != nil {
		return m.FanoutFn(ctx, callerID, tourID)
	}
	return fanout.Result{}, nil
}

// mockRepository implements Repository.
type mockRepository struct {
	GetMemberFn    func(ctx context.Context, tourID, userID string) (*database.Member, error)
	ListChangesFn  func(ctx context.Context, tourID string, limit int) ([]*events.ChangeEvent, error)
	ListMessagesFn func(ctx context.Context, userID, tourID string, limit int) ([]*database.Message, error)
}

func (m *mockRepository) GetMember(ctx context.Context, tourID, userID string) (*database.Member, error) {
	if m.GetMemberFn != nil {
		return m.GetMemberFn(ctx, tourID, userID)
	}
	return &database.Member{TourID: tourID, UserID: userID}, nil
}

func (m *mockRepository) ListChanges(ctx context.Context, tourID string, limit int) ([]*events.ChangeEvent, error) {
	if m.ListChangesFn != nil {
		return m.ListChangesFn(ctx, tourID, limit)
	}
	return nil, nil
}

func (m *mockRepository) ListMessages(ctx context.Context, userID, tourID string, limit int) ([]*database.Message, error) {
	if m.ListMessagesFn != nil {
		return m.ListMessagesFn(ctx, userID, tourID, limit)
	}
	return nil, nil
}

// mockMetricsReader implements MetricsReader.
type mockMetricsReader struct {
	services map[string]*metrics.ServiceMetrics
}

func (m *mockMetricsReader) GetServiceMetrics(_ context.Context, name string) (*metrics.ServiceMetrics, error) {
	if s, ok := m.services[name]; ok {
		return s, nil
	}
	return nil, errNoMetrics
}

func (m *mockMetricsReader) GetAllServiceMetrics(_ context.Context) map[string]*metrics.ServiceMetrics {
	return m.services
}
