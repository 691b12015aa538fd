package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists turns in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	recall int
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, recall: DefaultRecall}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		input TEXT NOT NULL,
		summary TEXT NOT NULL,
		plugins TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_user_created ON turns(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Read renders the user's most recent turns.
func (s *SQLiteStore) Read(ctx context.Context, userID string) (string, error) {
	entries, err := s.Recent(ctx, userID, s.recall)
	if err != nil {
		return "", err
	}
	return FormatContext(entries), nil
}

// Write inserts entry.
func (s *SQLiteStore) Write(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, user_id, input, summary, plugins, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Input, entry.Summary, strings.Join(entry.Plugins, ","), entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store turn: %w", err)
	}
	return nil
}

// Recent returns up to n of the user's entries, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, userID string, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, input, summary, plugins, created_at FROM turns
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var plugins sql.NullString
		var created int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Input, &e.Summary, &plugins, &created); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if plugins.Valid && plugins.String != "" {
			e.Plugins = strings.Split(plugins.String, ",")
		}
		e.CreatedAt = time.Unix(0, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
