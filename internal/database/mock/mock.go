// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/photo-diary/internal/database"
)

// MockEntryStore is an in-memory implementation of database.EntryWriter
type MockEntryStore struct {
	mu      sync.RWMutex
	entries map[string]database.Entry // key: owner + "|" + date

	// Error injection
	ListError   error
	GetError    error
	SaveError   error
	DeleteError error

	// ListErrorFor fails ListEntries only for queries whose From date matches a key (YYYY-MM-DD)
	ListErrorFor map[string]error

	// Queries records every ListEntries call for assertions on column masks
	Queries []database.EntryQuery
}

// NewMockEntryStore creates a new mock entry store
func NewMockEntryStore() *MockEntryStore {
	return &MockEntryStore{
		entries: make(map[string]database.Entry),
	}
}

func entryKey(owner string, date time.Time) string {
	return owner + "|" + date.Format("2006-01-02")
}

// AddEntry adds an entry to the mock store
func (m *MockEntryStore) AddEntry(e database.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Date = database.TruncateDate(e.Date)
	m.entries[entryKey(e.Owner, e.Date)] = e
}

// ListEntries returns matching entries in ascending date order, with
// unselected columns zeroed like a real backend would leave them.
func (m *MockEntryStore) ListEntries(ctx context.Context, q database.EntryQuery) ([]database.Entry, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}
	if err, ok := m.ListErrorFor[q.From.Format("2006-01-02")]; ok && !q.From.IsZero() {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Entry
	for _, e := range m.entries {
		if e.Owner != q.Owner {
			continue
		}
		if !q.From.IsZero() && e.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && e.Date.After(q.To) {
			continue
		}
		if q.LikedOnly && !e.Liked {
			continue
		}
		result = append(result, project(e, q))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func project(e database.Entry, q database.EntryQuery) database.Entry {
	out := database.Entry{ID: e.ID, Owner: e.Owner, Date: e.Date}
	if q.Columns.Has(database.ColNote) {
		out.Note = e.Note
	}
	if q.Columns.Has(database.ColPhoto) {
		out.PhotoPath = strings.TrimSpace(e.PhotoPath)
	}
	if q.Columns.Has(database.ColStickers) {
		out.Stickers = e.Stickers
		out.InvalidStickers = e.InvalidStickers
	}
	if q.Columns.Has(database.ColLiked) || q.LikedOnly {
		out.Liked = e.Liked
	}
	if q.Columns.Has(database.ColCreatedAt) {
		out.CreatedAt = e.CreatedAt
	}
	return out
}

// GetEntry retrieves an entry by owner and date
func (m *MockEntryStore) GetEntry(ctx context.Context, owner string, date time.Time) (*database.Entry, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[entryKey(owner, database.TruncateDate(date))]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// SaveEntry stores an entry
func (m *MockEntryStore) SaveEntry(ctx context.Context, e *database.Entry) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.AddEntry(*e)
	return nil
}

// DeleteEntry removes an entry
func (m *MockEntryStore) DeleteEntry(ctx context.Context, owner string, date time.Time) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entryKey(owner, database.TruncateDate(date)))
	return nil
}

// Count returns the number of stored entries
func (m *MockEntryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MockBlobFetcher serves asset bytes from memory
type MockBlobFetcher struct {
	mu    sync.Mutex
	blobs map[string][]byte
	calls map[string]int

	// FetchError fails every fetch
	FetchError error
	// Delay is applied before each fetch, honoring context cancellation
	Delay time.Duration
}

// NewMockBlobFetcher creates a new mock blob fetcher
func NewMockBlobFetcher() *MockBlobFetcher {
	return &MockBlobFetcher{
		blobs: make(map[string][]byte),
		calls: make(map[string]int),
	}
}

// AddBlob registers bytes for a path
func (m *MockBlobFetcher) AddBlob(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[path] = data
}

// Fetch returns the bytes stored for path
func (m *MockBlobFetcher) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	m.mu.Lock()
	m.calls[path]++
	data, ok := m.blobs[path]
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if m.FetchError != nil {
		return nil, "", m.FetchError
	}
	if !ok {
		return nil, "", &NotFoundError{Path: path}
	}
	return data, "application/octet-stream", nil
}

// Calls returns how many times path was fetched
func (m *MockBlobFetcher) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

// NotFoundError is returned for unknown blob paths
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "blob not found: " + e.Path
}
