package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/afikmenashe/roadcrew/internal/severity"
)

// InsertMessage writes a durable in-app message. MessageID and CreatedAt are filled in on m.
func (db *DB) InsertMessage(ctx context.Context, m *Message) error {
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	query := `
		INSERT INTO messages (message_id, tour_id, user_id, change_id, severity, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		m.MessageID,
		m.TourID,
		m.UserID,
		nullString(m.ChangeID),
		string(m.Severity),
		m.Body,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns a user's inbox for a tour, newest first.
func (db *DB) ListMessages(ctx context.Context, userID, tourID string, limit int) ([]*Message, error) {
	query := `
		SELECT message_id, tour_id, user_id, change_id, severity, body, created_at
		FROM messages
		WHERE user_id = $1 AND tour_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := db.conn.QueryContext(ctx, query, userID, tourID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			m        Message
			changeID sql.NullString
			sev      string
		)
		if err := rows.Scan(&m.MessageID, &m.TourID, &m.UserID, &changeID, &sev, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ChangeID = changeID.String
		m.Severity = severity.Severity(sev)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
