package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/havenproj/haven/internal/domain"
)

// GetThread loads a conversation thread by ID.
func (db *DB) GetThread(ctx context.Context, id string) (*domain.Thread, error) {
	var t domain.Thread
	var messages string
	var pending sql.NullString
	var createdAt, updatedAt string

	err := db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, messages, pending_action, summary, created_at, updated_at FROM threads WHERE id = ?", id).
		Scan(&t.ID, &t.UserID, &messages, &pending, &t.Summary, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(messages), &t.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages for thread %s: %w", id, err)
	}
	if pending.Valid && pending.String != "" {
		var act domain.ActionRequest
		if err := json.Unmarshal([]byte(pending.String), &act); err != nil {
			return nil, fmt.Errorf("decoding pending action for thread %s: %w", id, err)
		}
		t.Pending = &act
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// GetOrCreateThread loads a thread, creating an empty one for the user if
// it does not exist yet.
func (db *DB) GetOrCreateThread(ctx context.Context, id string, userID int64) (*domain.Thread, error) {
	t, err := db.GetThread(ctx, id)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// First contact creates the user lazily; assessments and crisis
	// events reference users(id) and foreign keys are enforced.
	if err := db.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := db.sql.ExecContext(ctx,
		"INSERT INTO threads (id, user_id) VALUES (?, ?)", id, userID); err != nil {
		return nil, fmt.Errorf("creating thread %s: %w", id, err)
	}
	return db.GetThread(ctx, id)
}

// SaveThread persists the full thread state in one statement: messages,
// pending action, and summary land together or not at all, so a thread
// can never be observed with a pending action but without the assistant
// message that proposed it.
func (db *DB) SaveThread(ctx context.Context, t *domain.Thread) error {
	messages, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages for thread %s: %w", t.ID, err)
	}

	var pending any
	if t.Pending != nil {
		raw, err := json.Marshal(t.Pending)
		if err != nil {
			return fmt.Errorf("encoding pending action for thread %s: %w", t.ID, err)
		}
		pending = string(raw)
	}

	res, err := db.sql.ExecContext(ctx,
		"UPDATE threads SET messages = ?, pending_action = ?, summary = ?, updated_at = datetime('now') WHERE id = ?",
		string(messages), pending, t.Summary, t.ID)
	if err != nil {
		return fmt.Errorf("saving thread %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving thread %s: %w", t.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListThreads returns a user's threads, most recently active first.
// Messages and pending actions are loaded in full.
func (db *DB) ListThreads(ctx context.Context, userID int64) ([]*domain.Thread, error) {
	rows, err := db.sql.QueryContext(ctx,
		"SELECT id FROM threads WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning thread id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	threads := make([]*domain.Thread, 0, len(ids))
	for _, id := range ids {
		t, err := db.GetThread(ctx, id)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}
