package database

import (
	"context"
	"database/sql"
	"fmt"
)

// GetMember returns a user's membership in a tour.
func (db *DB) GetMember(ctx context.Context, tourID, userID string) (*Member, error) {
	query := `
		SELECT tour_id, user_id, role, phone, email
		FROM tour_members
		WHERE tour_id = $1 AND user_id = $2
	`
	var (
		m            Member
		phone, email sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, query, tourID, userID).Scan(&m.TourID, &m.UserID, &m.Role, &phone, &email)
	if err != nil {
		return nil, wrapNotFound(err, "member", userID)
	}
	m.Phone = phone.String
	m.Email = email.String
	return &m, nil
}

// ListMembers returns every member of a tour.
func (db *DB) ListMembers(ctx context.Context, tourID string) ([]*Member, error) {
	query := `
		SELECT tour_id, user_id, role, phone, email
		FROM tour_members
		WHERE tour_id = $1
		ORDER BY user_id
	`
	rows, err := db.conn.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var (
			m            Member
			phone, email sql.NullString
		)
		if err := rows.Scan(&m.TourID, &m.UserID, &m.Role, &phone, &email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Phone = phone.String
		m.Email = email.String
		members = append(members, &m)
	}
	return members, rows.Err()
}

// ListUserTours returns the ids of the tours a user belongs to.
func (db *DB) ListUserTours(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT tour_id FROM tour_members WHERE user_id = $1 ORDER BY tour_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tours: %w", err)
	}
	defer rows.Close()

	var tours []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tour id: %w", err)
		}
		tours = append(tours, id)
	}
	return tours, rows.Err()
}
