package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/havenproj/haven/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const sqliteTimeLayout = "2006-01-02 15:04:05"

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t
	}
	t, _ = time.Parse(sqliteTimeLayout, s)
	return t
}

// CreateUser inserts a new user and returns it with the assigned ID.
func (db *DB) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ConsentLevel == "" {
		u.ConsentLevel = "basic"
	}
	res, err := db.sql.ExecContext(ctx,
		"INSERT INTO users (name, therapist_email, consent_level) VALUES (?, ?, ?)",
		u.Name, u.TherapistEmail, u.ConsentLevel)
	if err != nil {
		return domain.User{}, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("reading user id: %w", err)
	}
	return db.GetUser(ctx, id)
}

// EnsureUser inserts a minimal user row with the given ID if none exists,
// so a first-contact user can accumulate assessments and crisis events
// without an explicit signup step.
func (db *DB) EnsureUser(ctx context.Context, id int64) error {
	if _, err := db.sql.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (id, name, consent_level) VALUES (?, 'User', 'basic')", id); err != nil {
		return fmt.Errorf("ensuring user %d: %w", id, err)
	}
	return nil
}

// GetUser fetches a user by ID.
func (db *DB) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	var createdAt, updatedAt string
	err := db.sql.QueryRowContext(ctx,
		"SELECT id, name, therapist_email, consent_level, created_at, updated_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Name, &u.TherapistEmail, &u.ConsentLevel, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("querying user %d: %w", id, err)
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// UpdateUser updates the mutable fields of a user record.
func (db *DB) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := db.sql.ExecContext(ctx,
		"UPDATE users SET name = ?, therapist_email = ?, consent_level = ?, updated_at = datetime('now') WHERE id = ?",
		u.Name, u.TherapistEmail, u.ConsentLevel, u.ID)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadProfile assembles the user context handed to the decision node at
// the start of every turn: the user record, their most recent score per
// instrument, and the current risk level from the latest crisis event.
// An unknown user or a query failure degrades to the safe default profile
// so a storage problem never blocks a conversation.
func (db *DB) LoadProfile(ctx context.Context, userID int64) domain.Profile {
	p := domain.DefaultProfile(userID)

	u, err := db.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			db.log.Warn().Err(err).Int64("user_id", userID).Msg("profile lookup failed, using default")
		}
		return p
	}
	p.Name = u.Name
	p.TherapistEmail = u.TherapistEmail
	p.ConsentLevel = u.ConsentLevel

	for _, kind := range domain.Kinds {
		recs, err := db.ListAssessments(ctx, userID, kind, 1)
		if err != nil {
			db.log.Warn().Err(err).Int64("user_id", userID).Str("kind", string(kind)).Msg("assessment lookup failed")
			continue
		}
		if len(recs) > 0 {
			p.LatestScores = append(p.LatestScores, domain.AssessmentScore{
				Kind:  kind,
				Total: recs[0].Total,
				When:  recs[0].Timestamp,
			})
		}
	}

	ev, err := db.LatestCrisisEvent(ctx, userID)
	if err == nil {
		p.RiskLevel = ev.Level
	} else if !errors.Is(err, ErrNotFound) {
		db.log.Warn().Err(err).Int64("user_id", userID).Msg("crisis event lookup failed")
	}

	return p
}
