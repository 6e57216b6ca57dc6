package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/afikmenashe/roadcrew/internal/sender/validation"
)

// Payload is the entity-specific body of a change. Each entity type has
// exactly one payload shape.
type Payload interface {
	EntityType() EntityType
	Validate() error
}

// SchedulePayload describes a schedule event change.
type SchedulePayload struct {
	Title        string     `json:"title"`
	Venue        string     `json:"venue,omitempty"`
	LoadInAt     *time.Time `json:"load_in_at,omitempty"`
	SoundcheckAt *time.Time `json:"soundcheck_at,omitempty"`
	DoorsAt      *time.Time `json:"doors_at,omitempty"`
	ShowAt       *time.Time `json:"show_at,omitempty"`
	CurfewAt     *time.Time `json:"curfew_at,omitempty"`
}

func (SchedulePayload) EntityType() EntityType { return EntitySchedule }

func (p SchedulePayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("schedule_event title is required")
	}
	if p.DoorsAt != nil && p.ShowAt != nil && p.ShowAt.Before(*p.DoorsAt) {
		return fmt.Errorf("schedule_event show_at cannot be before doors_at")
	}
	return nil
}

// ContactPayload describes a contact change.
type ContactPayload struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

func (ContactPayload) EntityType() EntityType { return EntityContact }

func (p ContactPayload) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("contact name is required")
	}
	if p.Email != "" && !validation.IsEmail(p.Email) {
		return fmt.Errorf("invalid contact email: %q", p.Email)
	}
	return nil
}

// VenueNotePayload describes a venue note change.
type VenueNotePayload struct {
	Venue string `json:"venue"`
	Note  string `json:"note"`
}

func (VenueNotePayload) EntityType() EntityType { return EntityVenueNote }

func (p VenueNotePayload) Validate() error {
	if strings.TrimSpace(p.Venue) == "" {
		return fmt.Errorf("venue_note venue is required")
	}
	if strings.TrimSpace(p.Note) == "" {
		return fmt.Errorf("venue_note note is required")
	}
	return nil
}

// FinancePayload describes a finance line change.
type FinancePayload struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (FinancePayload) EntityType() EntityType { return EntityFinance }

func (p FinancePayload) Validate() error {
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("finance_line description is required")
	}
	if len(p.Currency) != 3 {
		return fmt.Errorf("finance_line currency must be a 3-letter code")
	}
	return nil
}

// DecodePayload decodes raw JSON into the payload shape selected by entityType
// and validates it. Unknown fields are rejected.
func DecodePayload(entityType EntityType, raw json.RawMessage) (Payload, error) {
	var p Payload
	switch entityType {
	case EntitySchedule:
		p = &SchedulePayload{}
	case EntityContact:
		p = &ContactPayload{}
	case EntityVenueNote:
		p = &VenueNotePayload{}
	case EntityFinance:
		p = &FinancePayload{}
	default:
		return nil, fmt.Errorf("unknown entity_type: %q", entityType)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("payload is required for entity_type %s", entityType)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", entityType, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodePayload marshals a payload for storage.
func EncodePayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", p.EntityType(), err)
	}
	return data, nil
}
