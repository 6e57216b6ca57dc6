package database

import (
	"context"
	"fmt"

	"github.com/afikmenashe/roadcrew/internal/preferences"
)

// UpsertTour creates a tour or renames an existing one.
func (db *DB) UpsertTour(ctx context.Context, tourID, name string) error {
	query := `
		INSERT INTO tours (tour_id, name)
		VALUES ($1, $2)
		ON CONFLICT (tour_id) DO UPDATE SET name = EXCLUDED.name
	`
	if _, err := db.conn.ExecContext(ctx, query, tourID, name); err != nil {
		return fmt.Errorf("failed to upsert tour: %w", err)
	}
	return nil
}

// UpsertMember adds a user to a tour or updates their role and contact details.
func (db *DB) UpsertMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO tour_members (tour_id, user_id, role, phone, email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tour_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email
	`
	_, err := db.conn.ExecContext(ctx, query, m.TourID, m.UserID, m.Role, nullString(m.Phone), nullString(m.Email))
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// UpsertScheduleEvent stores a schedule event, replacing its times.
func (db *DB) UpsertScheduleEvent(ctx context.Context, e *ScheduleEvent) error {
	query := `
		INSERT INTO schedule_events (event_id, tour_id, title, load_in_at, soundcheck_at, doors_at, show_at, curfew_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO UPDATE SET
			title = EXCLUDED.title,
			load_in_at = EXCLUDED.load_in_at,
			soundcheck_at = EXCLUDED.soundcheck_at,
			doors_at = EXCLUDED.doors_at,
			show_at = EXCLUDED.show_at,
			curfew_at = EXCLUDED.curfew_at
	`
	_, err := db.conn.ExecContext(ctx, query,
		e.EventID,
		e.TourID,
		e.Title,
		nullTime(e.LoadInAt),
		nullTime(e.SoundcheckAt),
		nullTime(e.DoorsAt),
		nullTime(e.ShowAt),
		nullTime(e.CurfewAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule event: %w", err)
	}
	return nil
}

// UpsertTourDefaultPreference stores the preference applied to members
// without their own row.
func (db *DB) UpsertTourDefaultPreference(ctx context.Context, tourID string, p preferences.Preference) error {
	query := `
		INSERT INTO tour_default_preferences (tour_id, ` + preferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tour_id) DO UPDATE SET
			min_severity = EXCLUDED.min_severity,
			safety_always = EXCLUDED.safety_always,
			time_always = EXCLUDED.time_always,
			money_always = EXCLUDED.money_always,
			day_window = EXCLUDED.day_window,
			notify_schedule_changes = EXCLUDED.notify_schedule_changes,
			notify_contact_changes = EXCLUDED.notify_contact_changes,
			notify_venue_changes = EXCLUDED.notify_venue_changes,
			notify_finance_changes = EXCLUDED.notify_finance_changes
	`
	_, err := db.conn.ExecContext(ctx, query,
		tourID,
		string(p.MinSeverity),
		p.SafetyAlways,
		p.TimeAlways,
		p.MoneyAlways,
		p.DayWindow,
		p.NotifySchedule,
		p.NotifyContact,
		p.NotifyVenue,
		p.NotifyFinance,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tour default preference: %w", err)
	}
	return nil
}

// DeleteTour removes a tour with everything recorded for it. Changes and
// inbox rows reference the tour without cascading and go first.
func (db *DB) DeleteTour(ctx context.Context, tourID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM messages WHERE tour_id = $1`,
		`DELETE FROM recipient_preferences WHERE tour_id = $1`,
		`DELETE FROM change_events WHERE tour_id = $1`,
		`DELETE FROM tours WHERE tour_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, tourID); err != nil {
			return fmt.Errorf("failed to delete tour %s: %w", tourID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tour delete: %w", err)
	}
	return nil
}
