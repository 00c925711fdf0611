package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
)

var dialect = database.Dialect{
	Placeholder: database.QuestionPlaceholder,
	DateExpr:    "DATE_FORMAT(entry_date, '%Y-%m-%d')",
}

// EntryRepository provides MariaDB-backed diary entry storage
type EntryRepository struct {
	pool *Pool
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(pool *Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

func (r *EntryRepository) ListEntries(ctx context.Context, q database.EntryQuery) ([]database.Entry, error) {
	query, args := database.BuildEntrySelect(dialect, q)
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return database.ScanEntries(rows, q)
}

func (r *EntryRepository) GetEntry(ctx context.Context, owner string, date time.Time) (*database.Entry, error) {
	q := database.EntryQuery{Owner: owner, From: date, To: date, Columns: database.AllColumns}
	query, args := database.BuildEntrySelect(dialect, q)
	e, err := database.ScanEntry(r.pool.db.QueryRowContext(ctx, query, args...), q.Columns, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

func (r *EntryRepository) SaveEntry(ctx context.Context, e *database.Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	args, err := database.EntryArgs(e)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO diary_entries (id, owner_id, entry_date, note, photo_path, stickers, liked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			note = VALUES(note),
			photo_path = VALUES(photo_path),
			stickers = VALUES(stickers),
			liked = VALUES(liked),
			updated_at = CURRENT_TIMESTAMP(6)`, args...)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) DeleteEntry(ctx context.Context, owner string, date time.Time) error {
	_, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM diary_entries WHERE owner_id = ? AND entry_date = ?`,
		owner, date.Format(constants.DateLayout))
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}
