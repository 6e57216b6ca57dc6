package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ClaimDelivery inserts a delivery log entry for (refID, recipient, kind).
// It reports false when the entry already existed, which callers treat as
// "already sent". The unique constraint makes check-then-insert atomic.
func (db *DB) ClaimDelivery(ctx context.Context, refID, recipient, kind string) (bool, error) {
	query := `
		INSERT INTO delivery_log (ref_id, recipient, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (ref_id, recipient, kind) DO NOTHING
		RETURNING id
	`
	var id int64
	err := db.conn.QueryRowContext(ctx, query, refID, recipient, kind).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("Delivery already logged",
			"ref_id", refID,
			"kind", kind,
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery: %w", err)
	}
	return true, nil
}

// ReleaseDelivery removes a claim whose delivery did not happen, so a later
// run can retry it.
func (db *DB) ReleaseDelivery(ctx context.Context, refID, recipient, kind string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM delivery_log WHERE ref_id = $1 AND recipient = $2 AND kind = $3`,
		refID, recipient, kind,
	)
	if err != nil {
		return fmt.Errorf("failed to release delivery: %w", err)
	}
	return nil
}

// RecordOutbound appends a sent SMS to the outbound message record.
func (db *DB) RecordOutbound(ctx context.Context, refID, kind, phone, body string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO outbound_messages (ref_id, kind, phone, body) VALUES ($1, $2, $3, $4)`,
		refID, kind, phone, body,
	)
	if err != nil {
		return fmt.Errorf("failed to record outbound message: %w", err)
	}
	return nil
}
