package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

const preferenceColumns = `min_severity, safety_always, time_always, money_always, day_window,
		notify_schedule_changes, notify_contact_changes, notify_venue_changes, notify_finance_changes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreference(row rowScanner, lead ...any) (*preferences.Preference, error) {
	var (
		p   preferences.Preference
		sev string
	)
	dest := append(lead,
		&sev,
		&p.SafetyAlways,
		&p.TimeAlways,
		&p.MoneyAlways,
		&p.DayWindow,
		&p.NotifySchedule,
		&p.NotifyContact,
		&p.NotifyVenue,
		&p.NotifyFinance,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.MinSeverity = severity.Severity(sev)
	return &p, nil
}

// GetUserPreference returns the stored preference of a user for a tour, or
// nil when the user has none.
func (db *DB) GetUserPreference(ctx context.Context, tourID, userID string) (*preferences.Preference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM recipient_preferences
		WHERE tour_id = $1 AND user_id = $2
	`
	p, err := scanPreference(db.conn.QueryRowContext(ctx, query, tourID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user preference: %w", err)
	}
	return p, nil
}

// GetTourDefaultPreference returns a tour's default preference, or nil when
// the tour has none.
func (db *DB) GetTourDefaultPreference(ctx context.Context, tourID string) (*preferences.Preference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM tour_default_preferences
		WHERE tour_id = $1
	`
	p, err := scanPreference(db.conn.QueryRowContext(ctx, query, tourID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour default preference: %w", err)
	}
	return p, nil
}

// ListTourPreferences returns the stored preferences of a tour's members keyed by user id.
func (db *DB) ListTourPreferences(ctx context.Context, tourID string) (map[string]*preferences.Preference, error) {
	query := `SELECT user_id, ` + preferenceColumns + `
		FROM recipient_preferences
		WHERE tour_id = $1
	`
	rows, err := db.conn.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tour preferences: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*preferences.Preference)
	for rows.Next() {
		var userID string
		p, err := scanPreference(rows, &userID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		result[userID] = p
	}
	return result, rows.Err()
}

// ResolveUserPreferences returns the resolved preference for each tour the
// user belongs to, applying the user row, tour default, hard default chain.
func (db *DB) ResolveUserPreferences(ctx context.Context, userID string) (map[string]preferences.Preference, error) {
	tours, err := db.ListUserTours(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]preferences.Preference, len(tours))
	if len(tours) == 0 {
		return result, nil
	}

	userPrefs, err := db.listPreferencesByTour(ctx,
		`SELECT tour_id, `+preferenceColumns+` FROM recipient_preferences WHERE user_id = $1 AND tour_id = ANY($2)`,
		userID, pq.Array(tours),
	)
	if err != nil {
		return nil, err
	}
	tourDefaults, err := db.listPreferencesByTour(ctx,
		`SELECT tour_id, `+preferenceColumns+` FROM tour_default_preferences WHERE tour_id = ANY($1)`,
		pq.Array(tours),
	)
	if err != nil {
		return nil, err
	}

	for _, tourID := range tours {
		result[tourID] = preferences.Resolve(userPrefs[tourID], tourDefaults[tourID])
	}
	return result, nil
}

func (db *DB) listPreferencesByTour(ctx context.Context, query string, args ...any) (map[string]*preferences.Preference, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*preferences.Preference)
	for rows.Next() {
		var tourID string
		p, err := scanPreference(rows, &tourID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		result[tourID] = p
	}
	return result, rows.Err()
}

// UpsertPreference stores a user's preference for a tour, replacing any previous row.
func (db *DB) UpsertPreference(ctx context.Context, tourID, userID string, p preferences.Preference) error {
	query := `
		INSERT INTO recipient_preferences (tour_id, user_id, ` + preferenceColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (tour_id, user_id) DO UPDATE SET
			min_severity = EXCLUDED.min_severity,
			safety_always = EXCLUDED.safety_always,
			time_always = EXCLUDED.time_always,
			money_always = EXCLUDED.money_always,
			day_window = EXCLUDED.day_window,
			notify_schedule_changes = EXCLUDED.notify_schedule_changes,
			notify_contact_changes = EXCLUDED.notify_contact_changes,
			notify_venue_changes = EXCLUDED.notify_venue_changes,
			notify_finance_changes = EXCLUDED.notify_finance_changes,
			updated_at = NOW()
	`
	_, err := db.conn.ExecContext(ctx, query,
		tourID,
		userID,
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
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}
