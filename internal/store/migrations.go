package store

// migration is a single schema change applied exactly once.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are applied in order. Never modify an existing entry once it
// has shipped; add a new version instead.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create_users",
		SQL: `
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				therapist_email TEXT NOT NULL DEFAULT '',
				consent_level TEXT NOT NULL DEFAULT 'basic',
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			)
		`,
	},
	{
		Version: 2,
		Name:    "create_assessments",
		SQL: `
			CREATE TABLE assessments (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id),
				kind TEXT NOT NULL,
				total INTEGER NOT NULL,
				items TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX idx_assessments_user_kind ON assessments(user_id, kind, created_at DESC)
		`,
	},
	{
		Version: 3,
		Name:    "create_crisis_events",
		SQL: `
			CREATE TABLE crisis_events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id),
				risk_level TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				action_taken TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX idx_crisis_events_user ON crisis_events(user_id, created_at DESC)
		`,
	},
	{
		Version: 4,
		Name:    "create_threads",
		SQL: `
			CREATE TABLE threads (
				id TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				messages TEXT NOT NULL DEFAULT '[]',
				pending_action TEXT,
				summary TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX idx_threads_user ON threads(user_id, updated_at DESC)
		`,
	},
}
