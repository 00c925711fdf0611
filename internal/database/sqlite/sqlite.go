// Package sqlite implements the diary entry store on a local SQLite file.
// It backs the CLI when no server database is configured, and unit tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

// schema is applied on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS diary_entries (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    entry_date  TEXT NOT NULL,
    note        TEXT NOT NULL DEFAULT '',
    photo_path  TEXT,
    stickers    TEXT NOT NULL DEFAULT '[]',
    liked       BOOLEAN NOT NULL DEFAULT 0,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL,
    UNIQUE (owner_id, entry_date)
);
CREATE INDEX IF NOT EXISTS idx_diary_entries_owner_date ON diary_entries (owner_id, entry_date);
`

var dialect = database.Dialect{
	Placeholder: database.QuestionPlaceholder,
	DateExpr:    "entry_date",
}

// Store is a SQLite-backed database.EntryWriter.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path in WAL mode.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("SQLite path is required")
	}

	params := url.Values{}
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	dsn := path
	if strings.Contains(path, "?") {
		dsn += "&" + params.Encode()
	} else {
		dsn += "?" + params.Encode()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}
	// One writer at a time; readers share the same connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Initialize opens the store and registers it as the active entry backend.
func Initialize(path string) (*Store, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	database.RegisterEntryBackend("sqlite",
		func() database.EntryReader { return store },
		func() database.EntryWriter { return store },
	)
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing SQLite database: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, q database.EntryQuery) ([]database.Entry, error) {
	query, args := database.BuildEntrySelect(dialect, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return database.ScanEntries(rows, q)
}

func (s *Store) GetEntry(ctx context.Context, owner string, date time.Time) (*database.Entry, error) {
	q := database.EntryQuery{Owner: owner, From: date, To: date, Columns: database.AllColumns}
	query, args := database.BuildEntrySelect(dialect, q)
	e, err := database.ScanEntry(s.db.QueryRowContext(ctx, query, args...), q.Columns, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

func (s *Store) SaveEntry(ctx context.Context, e *database.Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	args, err := database.EntryArgs(e)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	args = append(args, time.Now().UTC())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diary_entries (id, owner_id, entry_date, note, photo_path, stickers, liked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, entry_date) DO UPDATE SET
			note = excluded.note,
			photo_path = excluded.photo_path,
			stickers = excluded.stickers,
			liked = excluded.liked,
			updated_at = excluded.updated_at`, args...)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, owner string, date time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM diary_entries WHERE owner_id = ? AND entry_date = ?`,
		owner, date.Format(constants.DateLayout))
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}
