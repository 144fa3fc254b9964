package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/havenproj/haven/internal/domain"
)

// SaveAssessment records a completed assessment and returns it with the
// assigned ID and timestamp.
func (db *DB) SaveAssessment(ctx context.Context, rec domain.AssessmentRecord) (domain.AssessmentRecord, error) {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return domain.AssessmentRecord{}, fmt.Errorf("encoding item scores: %w", err)
	}

	res, err := db.sql.ExecContext(ctx,
		"INSERT INTO assessments (user_id, kind, total, items) VALUES (?, ?, ?, ?)",
		rec.UserID, rec.Kind, rec.Total, string(items))
	if err != nil {
		return domain.AssessmentRecord{}, fmt.Errorf("inserting assessment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.AssessmentRecord{}, fmt.Errorf("reading assessment id: %w", err)
	}

	var createdAt string
	if err := db.sql.QueryRowContext(ctx,
		"SELECT created_at FROM assessments WHERE id = ?", id).Scan(&createdAt); err != nil {
		return domain.AssessmentRecord{}, fmt.Errorf("reading assessment %d: %w", id, err)
	}

	rec.ID = id
	rec.Timestamp = parseTime(createdAt)
	return rec, nil
}

// ListAssessments returns a user's assessments for one instrument,
// most recent first. limit <= 0 means no limit.
func (db *DB) ListAssessments(ctx context.Context, userID int64, kind domain.AssessmentKind, limit int) ([]domain.AssessmentRecord, error) {
	query := "SELECT id, user_id, kind, total, items, created_at FROM assessments WHERE user_id = ? AND kind = ? ORDER BY created_at DESC, id DESC"
	args := []any{userID, kind}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	var recs []domain.AssessmentRecord
	for rows.Next() {
		var rec domain.AssessmentRecord
		var items, createdAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.Total, &items, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
			return nil, fmt.Errorf("decoding item scores for assessment %d: %w", rec.ID, err)
		}
		rec.Timestamp = parseTime(createdAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListAllAssessments returns every assessment for a user across all
// instruments, most recent first.
func (db *DB) ListAllAssessments(ctx context.Context, userID int64) ([]domain.AssessmentRecord, error) {
	rows, err := db.sql.QueryContext(ctx,
		"SELECT id, user_id, kind, total, items, created_at FROM assessments WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	var recs []domain.AssessmentRecord
	for rows.Next() {
		var rec domain.AssessmentRecord
		var items, createdAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.Total, &items, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
			return nil, fmt.Errorf("decoding item scores for assessment %d: %w", rec.ID, err)
		}
		rec.Timestamp = parseTime(createdAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
