// Package authoring validates and stores the writes that feed the
// notification pipelines: changes, scheduled messages, reminders and
// preferences.
package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/afikmenashe/roadcrew/internal/apperr"
	"github.com/afikmenashe/roadcrew/internal/database"
	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/fanout"
	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/internal/sender/validation"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

const (
	// MinReasonLength is the shortest accepted change reason.
	MinReasonLength = 10
	// MaxScheduledBody is the longest scheduled message body.
	MaxScheduledBody = 1500
	// MinLeadMinutes and MaxLeadMinutes bound a reminder's lead time.
	MinLeadMinutes = 1
	MaxLeadMinutes = 7 * 24 * 60
	// MaxDayWindow bounds the day window of a preference.
	MaxDayWindow = 365
)

// Store is the persistence the authoring service needs.
type Store interface {
	GetMember(ctx context.Context, tourID, userID string) (*database.Member, error)
	InsertChange(ctx context.Context, e *events.ChangeEvent) error
	InsertScheduledMessage(ctx context.Context, m *database.ScheduledMessage) error
	GetScheduleEvent(ctx context.Context, eventID string) (*database.ScheduleEvent, error)
	UpsertReminder(ctx context.Context, r *database.ReminderSubscription) error
	DeletePendingScheduledMessage(ctx context.Context, messageID, userID string) error
	GetUserPreference(ctx context.Context, tourID, userID string) (*preferences.Preference, error)
	GetTourDefaultPreference(ctx context.Context, tourID string) (*preferences.Preference, error)
	UpsertPreference(ctx context.Context, tourID, userID string, p preferences.Preference) error
}

// Publisher puts a recorded change on the change stream.
type Publisher interface {
	Publish(ctx context.Context, e *events.ChangeEvent) error
}

// FanoutRunner fans a tour's pending changes out to its members.
type FanoutRunner interface {
	Fanout(ctx context.Context, callerID, tourID string) (fanout.Result, error)
}

// Refresher reloads a user's live sessions after their tours or preferences change.
type Refresher interface {
	Refresh(ctx context.Context, userID string) error
}

// Service validates writes before they reach storage.
type Service struct {
	store              Store
	publisher          Publisher
	fanout             FanoutRunner
	refresher          Refresher
	defaultCountryCode string
	now                func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes recorded changes to the change stream.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithFanout runs the fanout when an admin or manager records a change.
func WithFanout(f FanoutRunner) Option { return func(s *Service) { s.fanout = f } }

// WithRefresher refreshes live sessions after a preference change.
func WithRefresher(r Refresher) Option { return func(s *Service) { s.refresher = r } }

// WithDefaultCountryCode is used for phone numbers entered without a country prefix.
func WithDefaultCountryCode(code string) Option {
	return func(s *Service) { s.defaultCountryCode = code }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates an authoring service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChangeInput is a change as submitted by a tour member.
type ChangeInput struct {
	TourID        string            `json:"tour_id"`
	EntityType    events.EntityType `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	Action        events.Action     `json:"action"`
	Summary       string            `json:"summary"`
	Reason        string            `json:"reason"`
	AffectsSafety bool              `json:"affects_safety"`
	AffectsTime   bool              `json:"affects_time"`
	AffectsMoney  bool              `json:"affects_money"`
	// Severity optionally overrides the classification.
	Severity string `json:"severity,omitempty"`
	// AssociatedDate is a calendar date, YYYY-MM-DD.
	AssociatedDate string          `json:"associated_date,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// RecordResult is a stored change and, when one ran, the fanout it triggered.
type RecordResult struct {
	Change *events.ChangeEvent `json:"change"`
	Fanout *fanout.Result      `json:"fanout,omitempty"`
}

// RecordChange validates and stores a change written by authorID, publishes
// it to the change stream and, when the author may, fans it out to the tour.
// Stream and fanout failures are logged; the change stays recorded.
func (s *Service) RecordChange(ctx context.Context, authorID string, in ChangeInput) (*RecordResult, error) {
	e, err := s.buildChange(authorID, in)
	if err != nil {
		return nil, err
	}

	author, err := s.requireMember(ctx, in.TourID, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertChange(ctx, e); err != nil {
		return nil, err
	}
	slog.Info("Recorded change",
		"change_id", e.ID,
		"tour_id", e.TourID,
		"author_id", authorID,
		"entity_type", e.EntityType,
		"severity", e.Severity,
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, e); err != nil {
			slog.Error("Failed to publish change", "change_id", e.ID, "error", err)
		}
	}

	res := &RecordResult{Change: e}
	if s.fanout != nil && author.CanTriggerFanout() {
		fr, err := s.fanout.Fanout(ctx, authorID, in.TourID)
		if err != nil {
			slog.Error("Fanout after change failed", "change_id", e.ID, "tour_id", in.TourID, "error", err)
		} else {
			res.Fanout = &fr
		}
	}
	return res, nil
}

func (s *Service) buildChange(authorID string, in ChangeInput) (*events.ChangeEvent, error) {
	if in.TourID == "" {
		return nil, apperr.Validation("tour_id is required")
	}
	if authorID == "" {
		return nil, apperr.Validation("author is required")
	}
	if !events.ValidEntityType(in.EntityType) {
		return nil, apperr.Validation("unknown entity_type: %q", in.EntityType)
	}
	if in.Action == "" {
		in.Action = events.ActionUpdate
	}
	if !events.ValidAction(in.Action) {
		return nil, apperr.Validation("action must be CREATE or UPDATE")
	}
	if strings.TrimSpace(in.Summary) == "" {
		return nil, apperr.Validation("summary is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Reason)) < MinReasonLength {
		return nil, apperr.Validation("reason must be at least %d characters", MinReasonLength)
	}

	payload, err := events.DecodePayload(in.EntityType, in.Payload)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	var override *severity.Severity
	if in.Severity != "" {
		sev, err := severity.Parse(in.Severity)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		override = &sev
	}

	var date *time.Time
	if in.AssociatedDate != "" {
		d, err := time.Parse(events.DateLayout, in.AssociatedDate)
		if err != nil {
			return nil, apperr.Validation("associated_date must be YYYY-MM-DD")
		}
		date = &d
	}

	return &events.ChangeEvent{
		TourID:         in.TourID,
		AuthorID:       authorID,
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		Action:         in.Action,
		Summary:        strings.TrimSpace(in.Summary),
		Reason:         strings.TrimSpace(in.Reason),
		AffectsSafety:  in.AffectsSafety,
		AffectsTime:    in.AffectsTime,
		AffectsMoney:   in.AffectsMoney,
		Severity:       severity.Classify(in.AffectsSafety, in.AffectsTime, in.AffectsMoney, override),
		AssociatedDate: date,
		Payload:        payload,
	}, nil
}

// ScheduleInput is a one-shot SMS request.
type ScheduleInput struct {
	Phone  string    `json:"phone"`
	Body   string    `json:"body"`
	SendAt time.Time `json:"send_at"`
	IsSelf bool      `json:"is_self"`
}

// ScheduleMessage validates and stores a scheduled SMS for userID.
// send_at must be in the future.
func (s *Service) ScheduleMessage(ctx context.Context, userID string, in ScheduleInput) (*database.ScheduledMessage, error) {
	if userID == "" {
		return nil, apperr.Validation("user is required")
	}
	phone, err := validation.NormalizePhone(in.Phone, s.defaultCountryCode)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, apperr.Validation("body is required")
	}
	if utf8.RuneCountInString(body) > MaxScheduledBody {
		return nil, apperr.Validation("body cannot exceed %d characters", MaxScheduledBody)
	}
	if !in.SendAt.After(s.now()) {
		return nil, apperr.Validation("send_at must be in the future")
	}

	m := &database.ScheduledMessage{
		UserID: userID,
		Phone:  phone,
		Body:   body,
		SendAt: in.SendAt.UTC(),
		IsSelf: in.IsSelf,
	}
	if err := s.store.InsertScheduledMessage(ctx, m); err != nil {
		return nil, err
	}
	slog.Info("Scheduled message", "message_id", m.MessageID, "user_id", userID, "send_at", m.SendAt)
	return m, nil
}

// CancelScheduledMessage deletes an unsent message owned by userID.
func (s *Service) CancelScheduledMessage(ctx context.Context, userID, messageID string) error {
	if messageID == "" {
		return apperr.Validation("message_id is required")
	}
	return s.store.DeletePendingScheduledMessage(ctx, messageID, userID)
}

// ReminderInput is a reminder subscription request.
type ReminderInput struct {
	EventID     string `json:"event_id"`
	Enabled     bool   `json:"enabled"`
	RemindType  string `json:"remind_type"`
	LeadMinutes int    `json:"lead_minutes"`
	Phone       string `json:"phone"`
}

// SaveReminder creates or replaces userID's reminder for an event.
func (s *Service) SaveReminder(ctx context.Context, userID string, in ReminderInput) (*database.ReminderSubscription, error) {
	if in.EventID == "" {
		return nil, apperr.Validation("event_id is required")
	}
	if !database.ValidRemindType(in.RemindType) {
		return nil, apperr.Validation("unknown remind_type: %q", in.RemindType)
	}
	if in.LeadMinutes < MinLeadMinutes || in.LeadMinutes > MaxLeadMinutes {
		return nil, apperr.Validation("lead_minutes must be between %d and %d", MinLeadMinutes, MaxLeadMinutes)
	}
	phone, err := validation.NormalizePhone(in.Phone, s.defaultCountryCode)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	event, err := s.store.GetScheduleEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, event.TourID, userID); err != nil {
		return nil, err
	}

	r := &database.ReminderSubscription{
		EventID:     in.EventID,
		UserID:      userID,
		Enabled:     in.Enabled,
		RemindType:  in.RemindType,
		LeadMinutes: in.LeadMinutes,
		Phone:       phone,
	}
	if err := s.store.UpsertReminder(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetPreference returns userID's effective preference for a tour.
func (s *Service) GetPreference(ctx context.Context, tourID, userID string) (preferences.Preference, error) {
	if _, err := s.requireMember(ctx, tourID, userID); err != nil {
		return preferences.Preference{}, err
	}
	user, err := s.store.GetUserPreference(ctx, tourID, userID)
	if err != nil {
		return preferences.Preference{}, err
	}
	tourDefault, err := s.store.GetTourDefaultPreference(ctx, tourID)
	if err != nil {
		return preferences.Preference{}, err
	}
	return preferences.Resolve(user, tourDefault), nil
}

// SavePreference validates and stores userID's preference for a tour, then
// refreshes the user's live sessions.
func (s *Service) SavePreference(ctx context.Context, tourID, userID string, p preferences.Preference) (preferences.Preference, error) {
	sev, err := severity.Parse(string(p.MinSeverity))
	if err != nil {
		return p, apperr.Validation("min_severity: %v", err)
	}
	p.MinSeverity = sev
	if p.DayWindow < 0 || p.DayWindow > MaxDayWindow {
		return p, apperr.Validation("day_window must be between 0 and %d", MaxDayWindow)
	}
	if _, err := s.requireMember(ctx, tourID, userID); err != nil {
		return p, err
	}

	if err := s.store.UpsertPreference(ctx, tourID, userID, p); err != nil {
		return p, err
	}
	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx, userID); err != nil {
			slog.Warn("Failed to refresh live sessions", "user_id", userID, "error", err)
		}
	}
	return p, nil
}

func (s *Service) requireMember(ctx context.Context, tourID, userID string) (*database.Member, error) {
	if tourID == "" {
		return nil, apperr.Validation("tour_id is required")
	}
	if userID == "" {
		return nil, apperr.Validation("user is required")
	}
	m, err := s.store.GetMember(ctx, tourID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s is not a member of tour %s", apperr.ErrPermission, userID, tourID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
