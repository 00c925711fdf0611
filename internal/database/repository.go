package database

import (
	"context"
	"time"
)

// EntryReader provides read-only access to diary entries
type EntryReader interface {
	// ListEntries returns the entries matching q in ascending date order
	ListEntries(ctx context.Context, q EntryQuery) ([]Entry, error)
	// GetEntry returns the entry of owner on date with all columns, nil if there is none
	GetEntry(ctx context.Context, owner string, date time.Time) (*Entry, error)
}

// EntryWriter provides write access to diary entries.
// The export engine only reads; writers back the seed command and tests.
type EntryWriter interface {
	EntryReader

	// SaveEntry inserts or replaces the entry for (owner, date)
	SaveEntry(ctx context.Context, e *Entry) error
	// DeleteEntry removes the entry for (owner, date), if any
	DeleteEntry(ctx context.Context, owner string, date time.Time) error
}
