package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/robocmd/pkg/model"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that recorded_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "journal"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

func (s *SQLiteStore) Append(ctx context.Context, entries []model.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "insert", "table", "journal_entries", "count", len(entries))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO journal_entries
		(id, session_id, cycle, command, kind, interrupted_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.SessionID, int64(e.Cycle), e.Command,
			e.Kind.String(), e.InterruptedBy, e.RecordedAt.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context, sessionID string, opts model.ListOptions) ([]model.JournalEntry, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "journal_entries", "session_id", sessionID, "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var whereClauses []string
	var countArgs []any
	if sessionID != "" {
		whereClauses = append(whereClauses, "session_id = ?")
		countArgs = append(countArgs, sessionID)
	}
	if opts.Kind != "" {
		whereClauses = append(whereClauses, "kind = ?")
		countArgs = append(countArgs, strings.ToUpper(opts.Kind))
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries`+whereSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT id, session_id, cycle, command, kind, interrupted_by, recorded_at
		FROM journal_entries` + whereSQL + ` ORDER BY seq ASC LIMIT ? OFFSET ?`
	listArgs := append(countArgs, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var cycle int64
		var kind, recordedAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &cycle, &e.Command, &kind, &e.InterruptedBy, &recordedAt); err != nil {
			return nil, 0, err
		}
		e.Cycle = uint64(cycle)
		e.Kind = model.LifecycleKind(kind)
		e.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]model.JournalSession, error) {
	s.logger.Debug("sql", "op", "sessions", "table", "journal_entries")

	rows, err := s.db.QueryContext(ctx, `SELECT session_id, COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM journal_entries GROUP BY session_id ORDER BY MAX(seq) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.JournalSession
	for rows.Next() {
		var sess model.JournalSession
		var first, last string
		if err := rows.Scan(&sess.ID, &sess.Entries, &first, &last); err != nil {
			return nil, err
		}
		sess.FirstSeen, _ = time.Parse(timeLayout, first)
		sess.LastSeen, _ = time.Parse(timeLayout, last)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
