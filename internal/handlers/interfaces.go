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

// Authoring is the write surface exposed to tour members.
type Authoring interface {
	RecordChange(ctx context.Context, authorID string, in authoring.ChangeInput) (*authoring.RecordResult, error)
	ScheduleMessage(ctx context.Context, userID string, in authoring.ScheduleInput) (*database.ScheduledMessage, error)
	CancelScheduledMessage(ctx context.Context, userID, messageID string) error
	SaveReminder(ctx context.Context, userID string, in authoring.ReminderInput) (*database.ReminderSubscription, error)
	GetPreference(ctx context.Context, tourID, userID string) (preferences.Preference, error)
	SavePreference(ctx context.Context, tourID, userID string, p preferences.Preference) (preferences.Preference, error)
}

// FanoutRunner delivers a tour's unprocessed changes.
type FanoutRunner interface {
	Fanout(ctx context.Context, callerID, tourID string) (fanout.Result, error)
}

// Repository is the read side used by list endpoints.
type Repository interface {
	GetMember(ctx context.Context, tourID, userID string) (*database.Member, error)
	ListChanges(ctx context.Context, tourID string, limit int) ([]*events.ChangeEvent, error)
	ListMessages(ctx context.Context, userID, tourID string, limit int) ([]*database.Message, error)
}

// MetricsReader reads per-service counters.
type MetricsReader interface {
	GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetrics(ctx context.Context) map[string]*metrics.ServiceMetrics
}
