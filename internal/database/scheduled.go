package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afikmenashe/roadcrew/internal/apperr"
)

// InsertScheduledMessage stores a one-shot SMS. MessageID and CreatedAt are filled in on m.
func (db *DB) InsertScheduledMessage(ctx context.Context, m *ScheduledMessage) error {
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	query := `
		INSERT INTO scheduled_messages (message_id, user_id, phone, body, send_at, is_self)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		m.MessageID, m.UserID, m.Phone, m.Body, m.SendAt, m.IsSelf,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert scheduled message: %w", err)
	}
	return nil
}

// ListDueScheduledMessages returns unsent messages with send_at at or before cutoff, oldest first.
func (db *DB) ListDueScheduledMessages(ctx context.Context, cutoff time.Time) ([]*ScheduledMessage, error) {
	query := `
		SELECT message_id, user_id, phone, body, send_at, sent, sent_at, is_self, created_at
		FROM scheduled_messages
		WHERE sent = FALSE AND send_at <= $1
		ORDER BY send_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled messages: %w", err)
	}
	defer rows.Close()

	var messages []*ScheduledMessage
	for rows.Next() {
		var (
			m      ScheduledMessage
			sentAt sql.NullTime
		)
		if err := rows.Scan(&m.MessageID, &m.UserID, &m.Phone, &m.Body, &m.SendAt, &m.Sent, &sentAt, &m.IsSelf, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled message: %w", err)
		}
		m.SentAt = timePtr(sentAt)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// MarkScheduledMessageSent flags a message as sent.
func (db *DB) MarkScheduledMessageSent(ctx context.Context, messageID string, sentAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_messages SET sent = TRUE, sent_at = $2 WHERE message_id = $1`,
		messageID, sentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark scheduled message sent: %w", err)
	}
	return nil
}

// DeletePendingScheduledMessage cancels an unsent message owned by userID.
func (db *DB) DeletePendingScheduledMessage(ctx context.Context, messageID, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM scheduled_messages WHERE message_id = $1 AND user_id = $2 AND sent = FALSE`,
		messageID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("scheduled message", messageID)
	}
	return nil
}

// DeleteSentScheduledMessagesBefore removes sent messages older than cutoff.
func (db *DB) DeleteSentScheduledMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM scheduled_messages WHERE sent = TRUE AND send_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep scheduled messages: %w", err)
	}
	return result.RowsAffected()
}
