package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/havenproj/haven/internal/domain"
)

// RecordCrisisEvent appends an entry to the safety audit log and returns
// it with the assigned ID and timestamp. The log is append-only; events
// are never updated or deleted.
func (db *DB) RecordCrisisEvent(ctx context.Context, ev domain.CrisisEvent) (domain.CrisisEvent, error) {
	res, err := db.sql.ExecContext(ctx,
		"INSERT INTO crisis_events (user_id, risk_level, description, action_taken) VALUES (?, ?, ?, ?)",
		ev.UserID, ev.Level, ev.Description, ev.ActionTaken)
	if err != nil {
		return domain.CrisisEvent{}, fmt.Errorf("inserting crisis event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.CrisisEvent{}, fmt.Errorf("reading crisis event id: %w", err)
	}

	var createdAt string
	if err := db.sql.QueryRowContext(ctx,
		"SELECT created_at FROM crisis_events WHERE id = ?", id).Scan(&createdAt); err != nil {
		return domain.CrisisEvent{}, fmt.Errorf("reading crisis event %d: %w", id, err)
	}

	ev.ID = id
	ev.Timestamp = parseTime(createdAt)
	return ev, nil
}

// LatestCrisisEvent returns a user's most recent safety event. The
// caller treats its level as the user's current risk level.
func (db *DB) LatestCrisisEvent(ctx context.Context, userID int64) (domain.CrisisEvent, error) {
	var ev domain.CrisisEvent
	var createdAt string
	err := db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, risk_level, description, action_taken, created_at FROM crisis_events WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		userID).
		Scan(&ev.ID, &ev.UserID, &ev.Level, &ev.Description, &ev.ActionTaken, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CrisisEvent{}, ErrNotFound
	}
	if err != nil {
		return domain.CrisisEvent{}, fmt.Errorf("querying crisis events: %w", err)
	}
	ev.Timestamp = parseTime(createdAt)
	return ev, nil
}

// ListCrisisEvents returns a user's safety events, most recent first.
func (db *DB) ListCrisisEvents(ctx context.Context, userID int64) ([]domain.CrisisEvent, error) {
	rows, err := db.sql.QueryContext(ctx,
		"SELECT id, user_id, risk_level, description, action_taken, created_at FROM crisis_events WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying crisis events: %w", err)
	}
	defer rows.Close()

	var evs []domain.CrisisEvent
	for rows.Next() {
		var ev domain.CrisisEvent
		var createdAt string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Level, &ev.Description, &ev.ActionTaken, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning crisis event: %w", err)
		}
		ev.Timestamp = parseTime(createdAt)
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}
