package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

const changeColumns = `id, tour_id, author_id, entity_type, entity_id, action, summary, reason,
		affects_safety, affects_time, affects_money, severity, associated_date, processed, created_at`

// InsertChange stores a new change event. ID and CreatedAt are filled in on e.
func (db *DB) InsertChange(ctx context.Context, e *events.ChangeEvent) error {
	payload, err := events.EncodePayload(e.Payload)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	query := `
		INSERT INTO change_events (id, tour_id, author_id, entity_type, entity_id, action, summary, reason,
			affects_safety, affects_time, affects_money, severity, associated_date, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`
	err = db.conn.QueryRowContext(ctx, query,
		e.ID,
		e.TourID,
		e.AuthorID,
		string(e.EntityType),
		e.EntityID,
		string(e.Action),
		e.Summary,
		e.Reason,
		e.AffectsSafety,
		e.AffectsTime,
		e.AffectsMoney,
		string(e.Severity),
		nullTime(e.AssociatedDate),
		nullJSON(payload),
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert change event: %w", err)
	}
	return nil
}

// ListUnprocessedChanges returns a tour's unprocessed change events, oldest first.
func (db *DB) ListUnprocessedChanges(ctx context.Context, tourID string) ([]*events.ChangeEvent, error) {
	query := `SELECT ` + changeColumns + `
		FROM change_events
		WHERE tour_id = $1 AND processed = FALSE
		ORDER BY created_at ASC
	`
	return db.queryChanges(ctx, query, tourID)
}

// ListChanges returns a tour's most recent change events, newest first.
func (db *DB) ListChanges(ctx context.Context, tourID string, limit int) ([]*events.ChangeEvent, error) {
	query := `SELECT ` + changeColumns + `
		FROM change_events
		WHERE tour_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return db.queryChanges(ctx, query, tourID, limit)
}

// MarkChangeProcessed flips processed for a change event. It reports false
// when the row was already processed by another run.
func (db *DB) MarkChangeProcessed(ctx context.Context, changeID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE change_events SET processed = TRUE WHERE id = $1 AND processed = FALSE`,
		changeID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark change processed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (db *DB) queryChanges(ctx context.Context, query string, args ...any) ([]*events.ChangeEvent, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list change events: %w", err)
	}
	defer rows.Close()

	var changes []*events.ChangeEvent
	for rows.Next() {
		var (
			e          events.ChangeEvent
			entityType string
			action     string
			sev        string
			assocDate  sql.NullTime
		)
		if err := rows.Scan(
			&e.ID,
			&e.TourID,
			&e.AuthorID,
			&entityType,
			&e.EntityID,
			&action,
			&e.Summary,
			&e.Reason,
			&e.AffectsSafety,
			&e.AffectsTime,
			&e.AffectsMoney,
			&sev,
			&assocDate,
			&e.Processed,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan change event: %w", err)
		}
		e.EntityType = events.EntityType(entityType)
		e.Action = events.Action(action)
		e.Severity = severity.Severity(sev)
		if assocDate.Valid {
			d := assocDate.Time
			e.AssociatedDate = &d
		}
		changes = append(changes, &e)
	}
	return changes, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullJSON(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
