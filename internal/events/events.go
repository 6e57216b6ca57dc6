// Package events defines the change event shared by the three pipelines and
// its wire form on the changes.recorded topic.
package events

import (
	"time"

	"github.com/afikmenashe/roadcrew/internal/severity"
)

// SchemaVersion is carried in the schema_version header of every published change.
const SchemaVersion = 1

// DateLayout is the calendar-date format used for associated dates.
const DateLayout = "2006-01-02"

// EntityType is the discriminant of a change's payload.
type EntityType string

const (
	EntitySchedule  EntityType = "schedule_event"
	EntityContact   EntityType = "contact"
	EntityVenueNote EntityType = "venue_note"
	EntityFinance   EntityType = "finance_line"
)

// Action is the kind of mutation recorded.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
)

// ChangeEvent is one recorded mutation to a tour's knowledge base.
// Rows are never mutated after insert except for Processed.
type ChangeEvent struct {
	ID             string            `json:"id"`
	TourID         string            `json:"tour_id"`
	AuthorID       string            `json:"author_id"`
	EntityType     EntityType        `json:"entity_type"`
	EntityID       string            `json:"entity_id"`
	Action         Action            `json:"action"`
	Summary        string            `json:"summary"`
	Reason         string            `json:"reason"`
	AffectsSafety  bool              `json:"affects_safety"`
	AffectsTime    bool              `json:"affects_time"`
	AffectsMoney   bool              `json:"affects_money"`
	Severity       severity.Severity `json:"severity"`
	AssociatedDate *time.Time        `json:"associated_date,omitempty"`
	Payload        Payload           `json:"-"`
	Processed      bool              `json:"processed"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ResolvedSeverity returns the stored severity, or the one derived from the
// flags when nothing was stored.
func (e *ChangeEvent) ResolvedSeverity() severity.Severity {
	var override *severity.Severity
	if e.Severity != "" {
		s := e.Severity
		override = &s
	}
	return severity.Classify(e.AffectsSafety, e.AffectsTime, e.AffectsMoney, override)
}

// ImpactTags returns the emoji tags for the event's impact flags.
func (e *ChangeEvent) ImpactTags() []string {
	return severity.ImpactTags(e.AffectsSafety, e.AffectsTime, e.AffectsMoney)
}

// ValidEntityType reports whether t is a known payload discriminant.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntitySchedule, EntityContact, EntityVenueNote, EntityFinance:
		return true
	}
	return false
}

// ValidAction reports whether a is a known action.
func ValidAction(a Action) bool {
	return a == ActionCreate || a == ActionUpdate
}
