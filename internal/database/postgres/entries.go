package postgres

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
	Placeholder: database.DollarPlaceholder,
	DateExpr:    "to_char(entry_date, 'YYYY-MM-DD')",
}

// EntryRepository provides PostgreSQL-backed diary entry storage
type EntryRepository struct {
	pool *Pool
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(pool *Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

func (r *EntryRepository) ListEntries(ctx context.Context, q database.EntryQuery) ([]database.Entry, error) {
	query, args := database.BuildEntrySelect(dialect, q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return database.ScanEntries(rows, q)
}

func (r *EntryRepository) GetEntry(ctx context.Context, owner string, date time.Time) (*database.Entry, error) {
	q := database.EntryQuery{Owner: owner, From: date, To: date, Columns: database.AllColumns}
	query, args := database.BuildEntrySelect(dialect, q)
	e, err := database.ScanEntry(r.pool.QueryRow(ctx, query, args...), q.Columns, true)
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
	_, err = r.pool.Exec(ctx, `
		INSERT INTO diary_entries (id, owner_id, entry_date, note, photo_path, stickers, liked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, entry_date) DO UPDATE SET
			note = EXCLUDED.note,
			photo_path = EXCLUDED.photo_path,
			stickers = EXCLUDED.stickers,
			liked = EXCLUDED.liked,
			updated_at = NOW()`, args...)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) DeleteEntry(ctx context.Context, owner string, date time.Time) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM diary_entries WHERE owner_id = $1 AND entry_date = $2`,
		owner, date.Format(constants.DateLayout))
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}
