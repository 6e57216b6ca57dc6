// Package preferences decides whether a recipient should hear about a change.
package preferences

import (
	"time"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

// DefaultDayWindow is the hard-coded day window used when nothing is stored.
const DefaultDayWindow = 3

// Preference is one recipient's notification settings for one tour.
type Preference struct {
	MinSeverity    severity.Severity `json:"min_severity"`
	SafetyAlways   bool              `json:"safety_always"`
	TimeAlways     bool              `json:"time_always"`
	MoneyAlways    bool              `json:"money_always"`
	DayWindow      int               `json:"day_window"`
	NotifySchedule bool              `json:"notify_schedule_changes"`
	NotifyContact  bool              `json:"notify_contact_changes"`
	NotifyVenue    bool              `json:"notify_venue_changes"`
	NotifyFinance  bool              `json:"notify_finance_changes"`
}

// Defaults returns the hard-coded preference applied when neither the user
// nor the tour has a stored row.
func Defaults() Preference {
	return Preference{
		MinSeverity:    severity.Critical,
		SafetyAlways:   true,
		TimeAlways:     true,
		MoneyAlways:    true,
		DayWindow:      DefaultDayWindow,
		NotifySchedule: true,
		NotifyContact:  true,
		NotifyVenue:    true,
		NotifyFinance:  true,
	}
}

// Resolve applies the fallback chain: user row, then tour default row, then Defaults.
func Resolve(user, tourDefault *Preference) Preference {
	if user != nil {
		return *user
	}
	if tourDefault != nil {
		return *tourDefault
	}
	return Defaults()
}

// CategoryEnabled reports whether the toggle for the entity type is on.
// Entity types without a toggle are always enabled.
func (p Preference) CategoryEnabled(t events.EntityType) bool {
	switch t {
	case events.EntitySchedule:
		return p.NotifySchedule
	case events.EntityContact:
		return p.NotifyContact
	case events.EntityVenueNote:
		return p.NotifyVenue
	case events.EntityFinance:
		return p.NotifyFinance
	default:
		return true
	}
}

// Override reports whether one of the event's impact flags is marked always-notify.
func (p Preference) Override(e *events.ChangeEvent) bool {
	return (e.AffectsSafety && p.SafetyAlways) ||
		(e.AffectsTime && p.TimeAlways) ||
		(e.AffectsMoney && p.MoneyAlways)
}

// ShouldNotify decides whether the event reaches a recipient with prefs.
// today is the recipient's current calendar date. Authors are excluded by the
// caller before this is consulted.
func ShouldNotify(e *events.ChangeEvent, p Preference, today time.Time) bool {
	if !p.Override(e) {
		if !p.CategoryEnabled(e.EntityType) {
			return false
		}
		if severity.Rank(e.ResolvedSeverity()) < severity.Rank(p.MinSeverity) {
			return false
		}
	}

	// The day window applies even when an override fired. A window of zero
	// or less disables the gate.
	if e.AssociatedDate != nil && p.DayWindow > 0 {
		if DaysOut(*e.AssociatedDate, today) > p.DayWindow {
			return false
		}
	}
	return true
}

// DaysOut counts calendar days from today to date. Past dates are negative.
// Both values are read as calendar dates in their own locations.
func DaysOut(date, today time.Time) int {
	d := civil(date)
	t := civil(today)
	return int(d.Sub(t).Hours() / 24)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return civil(now.In(loc))
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
