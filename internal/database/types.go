package database

import (
	"time"

	"github.com/afikmenashe/roadcrew/internal/severity"
)

// Tour member roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCrew    = "crew"
)

// Member is a user's membership in a tour.
type Member struct {
	TourID string `json:"tour_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
}

// CanTriggerFanout reports whether the member may fan changes out to the tour.
func (m *Member) CanTriggerFanout() bool {
	return m.Role == RoleAdmin || m.Role == RoleManager
}

// Remind types name the schedule event timestamp a reminder targets.
const (
	RemindLoadIn     = "load_in_at"
	RemindSoundcheck = "soundcheck_at"
	RemindDoors      = "doors_at"
	RemindShow       = "show_at"
	RemindCurfew     = "curfew_at"
)

// ValidRemindType reports whether t names a schedule event timestamp.
func ValidRemindType(t string) bool {
	switch t {
	case RemindLoadIn, RemindSoundcheck, RemindDoors, RemindShow, RemindCurfew:
		return true
	}
	return false
}

// ScheduleEvent is a dated item on a tour's schedule.
type ScheduleEvent struct {
	EventID      string     `json:"event_id"`
	TourID       string     `json:"tour_id"`
	Title        string     `json:"title"`
	LoadInAt     *time.Time `json:"load_in_at,omitempty"`
	SoundcheckAt *time.Time `json:"soundcheck_at,omitempty"`
	DoorsAt      *time.Time `json:"doors_at,omitempty"`
	ShowAt       *time.Time `json:"show_at,omitempty"`
	CurfewAt     *time.Time `json:"curfew_at,omitempty"`
}

// Target returns the timestamp named by remindType, or nil when unset or unknown.
func (e *ScheduleEvent) Target(remindType string) *time.Time {
	switch remindType {
	case RemindLoadIn:
		return e.LoadInAt
	case RemindSoundcheck:
		return e.SoundcheckAt
	case RemindDoors:
		return e.DoorsAt
	case RemindShow:
		return e.ShowAt
	case RemindCurfew:
		return e.CurfewAt
	}
	return nil
}

// ReminderSubscription asks for an SMS lead_minutes before an event timestamp.
// There is at most one per (event, user).
type ReminderSubscription struct {
	ReminderID  string    `json:"reminder_id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Enabled     bool      `json:"enabled"`
	RemindType  string    `json:"remind_type"`
	LeadMinutes int       `json:"lead_minutes"`
	Phone       string    `json:"phone"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReminderCandidate pairs an enabled subscription with its parent event.
type ReminderCandidate struct {
	Subscription ReminderSubscription
	Event        ScheduleEvent
}

// ScheduledMessage is a one-shot SMS to be sent at SendAt.
type ScheduledMessage struct {
	MessageID string     `json:"message_id"`
	UserID    string     `json:"user_id"`
	Phone     string     `json:"phone"`
	Body      string     `json:"body"`
	SendAt    time.Time  `json:"send_at"`
	Sent      bool       `json:"sent"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	IsSelf    bool       `json:"is_self"`
	CreatedAt time.Time  `json:"created_at"`
}

// Message is a durable in-app message in a member's inbox.
type Message struct {
	MessageID string            `json:"message_id"`
	TourID    string            `json:"tour_id"`
	UserID    string            `json:"user_id"`
	ChangeID  string            `json:"change_id,omitempty"`
	Severity  severity.Severity `json:"severity"`
	Body      string            `json:"body"`
	CreatedAt time.Time         `json:"created_at"`
}

// Delivery log kinds.
const (
	KindChange    = "change"
	KindScheduled = "scheduled"
)
