package journal

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the journal tables.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		id             TEXT NOT NULL UNIQUE,
		session_id     TEXT NOT NULL,
		cycle          INTEGER NOT NULL,
		command        TEXT NOT NULL,
		kind           TEXT NOT NULL,
		interrupted_by TEXT NOT NULL DEFAULT '',
		recorded_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_session ON journal_entries(session_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_kind ON journal_entries(kind)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
