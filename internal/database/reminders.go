package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetScheduleEvent returns a schedule event by id.
func (db *DB) GetScheduleEvent(ctx context.Context, eventID string) (*ScheduleEvent, error) {
	query := `
		SELECT event_id, tour_id, title, load_in_at, soundcheck_at, doors_at, show_at, curfew_at
		FROM schedule_events
		WHERE event_id = $1
	`
	e, err := scanScheduleEvent(db.conn.QueryRowContext(ctx, query, eventID))
	if err != nil {
		return nil, wrapNotFound(err, "schedule event", eventID)
	}
	return e, nil
}

func scanScheduleEvent(row rowScanner, lead ...any) (*ScheduleEvent, error) {
	var (
		e                                     ScheduleEvent
		loadIn, soundcheck, doors, show, curf sql.NullTime
	)
	dest := append(lead, &e.EventID, &e.TourID, &e.Title, &loadIn, &soundcheck, &doors, &show, &curf)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.LoadInAt = timePtr(loadIn)
	e.SoundcheckAt = timePtr(soundcheck)
	e.DoorsAt = timePtr(doors)
	e.ShowAt = timePtr(show)
	e.CurfewAt = timePtr(curf)
	return &e, nil
}

// UpsertReminder stores the reminder of a user for an event, overwriting the
// existing one in place.
func (db *DB) UpsertReminder(ctx context.Context, r *ReminderSubscription) error {
	query := `
		INSERT INTO reminder_subscriptions (reminder_id, event_id, user_id, enabled, remind_type, lead_minutes, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			remind_type = EXCLUDED.remind_type,
			lead_minutes = EXCLUDED.lead_minutes,
			phone = EXCLUDED.phone,
			updated_at = NOW()
		RETURNING reminder_id, updated_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		uuid.NewString(),
		r.EventID,
		r.UserID,
		r.Enabled,
		r.RemindType,
		r.LeadMinutes,
		r.Phone,
	).Scan(&r.ReminderID, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert reminder: %w", err)
	}
	return nil
}

// ListReminderCandidates returns every enabled reminder with its parent event.
func (db *DB) ListReminderCandidates(ctx context.Context) ([]*ReminderCandidate, error) {
	query := `
		SELECT r.reminder_id, r.event_id, r.user_id, r.enabled, r.remind_type, r.lead_minutes, r.phone, r.updated_at,
			e.event_id, e.tour_id, e.title, e.load_in_at, e.soundcheck_at, e.doors_at, e.show_at, e.curfew_at
		FROM reminder_subscriptions r
		JOIN schedule_events e ON e.event_id = r.event_id
		WHERE r.enabled = TRUE
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var candidates []*ReminderCandidate
	for rows.Next() {
		var s ReminderSubscription
		e, err := scanScheduleEvent(rows,
			&s.ReminderID, &s.EventID, &s.UserID, &s.Enabled, &s.RemindType, &s.LeadMinutes, &s.Phone, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		candidates = append(candidates, &ReminderCandidate{Subscription: s, Event: *e})
	}
	return candidates, rows.Err()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
