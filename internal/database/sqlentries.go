package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/photo-diary/internal/constants"
)

// Dialect captures the differences between the SQL entry stores.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// DateExpr selects entry_date as YYYY-MM-DD text.
	DateExpr string
}

// DollarPlaceholder renders PostgreSQL style parameters ($1, $2, ...).
func DollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// QuestionPlaceholder renders MySQL and SQLite style parameters.
func QuestionPlaceholder(int) string {
	return "?"
}

// BuildEntrySelect renders the SELECT for q against the diary_entries table.
// Dates are bound as YYYY-MM-DD strings, which every backend compares as dates.
func BuildEntrySelect(d Dialect, q EntryQuery) (string, []any) {
	cols := []string{"id", "owner_id", d.DateExpr}
	if q.Columns.Has(ColNote) {
		cols = append(cols, "note")
	}
	if q.Columns.Has(ColPhoto) {
		cols = append(cols, "photo_path")
	}
	if q.Columns.Has(ColStickers) {
		cols = append(cols, "stickers")
	}
	if q.Columns.Has(ColLiked) || q.LikedOnly {
		cols = append(cols, "liked")
	}
	if q.Columns.Has(ColCreatedAt) {
		cols = append(cols, "created_at")
	}

	var where []string
	var args []any
	bind := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, d.Placeholder(len(args))))
	}

	bind("owner_id = %s", q.Owner)
	if !q.From.IsZero() {
		bind("entry_date >= %s", q.From.Format(constants.DateLayout))
	}
	if !q.To.IsZero() {
		bind("entry_date <= %s", q.To.Format(constants.DateLayout))
	}
	if q.LikedOnly {
		where = append(where, "liked = TRUE")
	}

	query := "SELECT " + strings.Join(cols, ", ") +
		" FROM diary_entries WHERE " + strings.Join(where, " AND ") +
		" ORDER BY entry_date ASC"
	return query, args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ScanEntry reads one row produced by BuildEntrySelect with the same columns.
func ScanEntry(row rowScanner, columns Columns, likedLoaded bool) (Entry, error) {
	var (
		e        Entry
		date     string
		photo    sql.NullString
		stickers []byte
		created  sql.NullTime
	)
	dest := []any{&e.ID, &e.Owner, &date}
	if columns.Has(ColNote) {
		dest = append(dest, &e.Note)
	}
	if columns.Has(ColPhoto) {
		dest = append(dest, &photo)
	}
	if columns.Has(ColStickers) {
		dest = append(dest, &stickers)
	}
	if likedLoaded {
		dest = append(dest, &e.Liked)
	}
	if columns.Has(ColCreatedAt) {
		dest = append(dest, &created)
	}

	if err := row.Scan(dest...); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	d, err := ParseDate(date)
	if err != nil {
		return Entry{}, fmt.Errorf("parse entry date %q: %w", date, err)
	}
	e.Date = d
	e.PhotoPath = strings.TrimSpace(photo.String)
	if created.Valid {
		e.CreatedAt = created.Time
	}
	if columns.Has(ColStickers) {
		parsed, dropped, err := ParseStickers(stickers)
		if err != nil {
			// An unreadable list is treated as fully malformed, not as a failed row.
			e.InvalidStickers = 1
		} else {
			e.Stickers = parsed
			e.InvalidStickers = dropped
		}
	}
	return e, nil
}

// ScanEntries drains rows produced by BuildEntrySelect.
func ScanEntries(rows *sql.Rows, q EntryQuery) ([]Entry, error) {
	var entries []Entry
	likedLoaded := q.Columns.Has(ColLiked) || q.LikedOnly
	for rows.Next() {
		e, err := ScanEntry(rows, q.Columns, likedLoaded)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// EntryArgs returns the stored representation of e for insert statements,
// in column order: id, owner_id, entry_date, note, photo_path, stickers, liked, created_at.
func EntryArgs(e *Entry) ([]any, error) {
	stickers, err := MarshalStickers(e.Stickers)
	if err != nil {
		return nil, err
	}
	var photo any
	if e.PhotoPath != "" {
		photo = e.PhotoPath
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return []any{e.ID, e.Owner, e.DateKey(), e.Note, photo, string(stickers), e.Liked, created}, nil
}
