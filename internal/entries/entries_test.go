package entries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/database/mock"
	"github.com/kozaktomas/photo-diary/internal/materialize"
)

// fakeImages materializes every ref except those listed as broken.
type fakeImages struct {
	broken map[string]bool
	calls  [][]string
}

func (f *fakeImages) MaterializeAll(ctx context.Context, refs []string) map[string]*materialize.Image {
	f.calls = append(f.calls, refs)
	result := make(map[string]*materialize.Image)
	for _, ref := range refs {
		if !f.broken[ref] {
			result[ref] = &materialize.Image{MIME: "image/jpeg", Width: 10, Height: 10}
		}
	}
	return result
}

func date(s string) time.Time {
	d, err := database.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedStore() *mock.MockEntryStore {
	store := mock.NewMockEntryStore()
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-02"), Note: "monday", PhotoPath: "p/mon.jpg"})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-03"), Note: "   "})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-04"), Note: "wednesday", Liked: true})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-15"),
		Stickers: []database.Sticker{{Kind: database.StickerEmoji, Emoji: "⭐", X: 0.5, Y: 0.5, Scale: 1}}})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-04-20"), PhotoPath: "p/apr.jpg", Liked: true})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2025-12-24"), Note: "old favorite", Liked: true})
	store.AddEntry(database.Entry{Owner: "bob", Date: date("2026-03-02"), Note: "bob"})
	return store
}

func TestHasContent(t *testing.T) {
	tests := []struct {
		name     string
		entry    database.Entry
		expected bool
	}{
		{"empty", database.Entry{}, false},
		{"blank note", database.Entry{Note: " \n\t"}, false},
		{"note", database.Entry{Note: "hi"}, true},
		{"photo", database.Entry{PhotoPath: "p.jpg"}, true},
		{"blank photo", database.Entry{PhotoPath: "  "}, false},
		{"sticker", database.Entry{Stickers: []database.Sticker{{Kind: database.StickerEmoji}}}, true},
		{"liked only", database.Entry{Liked: true}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasContent(tc.entry); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestWeekStart(t *testing.T) {
	tests := map[string]string{
		"2026-03-02": "2026-03-02", // Monday
		"2026-03-04": "2026-03-02",
		"2026-03-08": "2026-03-02", // Sunday
		"2026-03-09": "2026-03-09",
		"2026-01-01": "2025-12-29",
	}
	for in, want := range tests {
		if got := WeekStart(date(in)).Format(time.DateOnly); got != want {
			t.Errorf("WeekStart(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestDatesWithContent(t *testing.T) {
	store := seedStore()
	p := NewProvider(store, &fakeImages{}, nil)

	dates, err := p.DatesWithContent(context.Background(), "alice", date("2026-03-01"), date("2026-03-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2026-03-02", "2026-03-04", "2026-03-15"}
	if len(dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	for i, d := range dates {
		if d.Format(time.DateOnly) != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, d.Format(time.DateOnly))
		}
	}
	if len(store.Queries) != 1 {
		t.Errorf("expected a single range query, got %d", len(store.Queries))
	}
}

func TestWeeksWithContent(t *testing.T) {
	p := NewProvider(seedStore(), &fakeImages{}, nil)
	weeks, err := p.WeeksWithContent(context.Background(), "alice", date("2026-03-01"), date("2026-04-30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2026-03-02", "2026-03-09", "2026-04-20"}
	if len(weeks) != len(want) {
		t.Fatalf("expected %v, got %v", want, weeks)
	}
	for i, w := range weeks {
		if w.Format(time.DateOnly) != want[i] {
			t.Errorf("expected %s, got %s", want[i], w.Format(time.DateOnly))
		}
	}
}

func TestMonthsWithContent(t *testing.T) {
	p := NewProvider(seedStore(), &fakeImages{}, nil)
	months, err := p.MonthsWithContent(context.Background(), "alice", date("2025-01-01"), date("2026-12-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2025-12", "2026-03", "2026-04"}
	if len(months) != len(want) {
		t.Fatalf("expected %v, got %v", want, months)
	}
	for i, m := range months {
		if m.String() != want[i] {
			t.Errorf("expected %s, got %s", want[i], m)
		}
	}
}

func TestMonthsWithContent_OnlyDay15(t *testing.T) {
	store := mock.NewMockEntryStore()
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-05-15"), PhotoPath: "p/15.jpg"})
	p := NewProvider(store, &fakeImages{}, nil)

	months, err := p.MonthsWithContent(context.Background(), "alice", date("2026-05-01"), date("2026-05-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(months) != 1 || months[0] != (YearMonth{2026, time.May}) {
		t.Errorf("expected [2026-05], got %v", months)
	}
}

func TestRangeQuery_Error(t *testing.T) {
	store := seedStore()
	store.ListError = errors.New("connection reset")
	p := NewProvider(store, &fakeImages{}, nil)

	if _, err := p.DatesWithContent(context.Background(), "alice", date("2026-03-01"), date("2026-03-31")); err == nil {
		t.Error("expected error")
	}
}

func TestFetchDay(t *testing.T) {
	store := mock.NewMockEntryStore()
	store.AddEntry(database.Entry{
		Owner: "alice", Date: date("2026-03-02"), Note: "day", PhotoPath: "p/photo.jpg",
		Stickers: []database.Sticker{
			{Kind: database.StickerImage, Ref: "static/star.png", X: 0.2, Y: 0.3, Scale: 1},
			{Kind: database.StickerImage, Ref: "static/broken.png", X: 0.5, Y: 0.5, Scale: 1},
			{Kind: database.StickerEmoji, Emoji: "🌸", X: 0.8, Y: 0.1, Scale: 2},
		},
		InvalidStickers: 1,
	})
	images := &fakeImages{broken: map[string]bool{"static/broken.png": true}}
	p := NewProvider(store, images, nil)

	day, err := p.FetchDay(context.Background(), "alice", date("2026-03-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Entry == nil || day.Entry.Note != "day" {
		t.Fatalf("expected entry, got %+v", day.Entry)
	}
	if day.Photo == nil {
		t.Error("expected photo")
	}
	if len(day.Stickers) != 3 {
		t.Fatalf("expected 3 stickers, got %d", len(day.Stickers))
	}
	if day.Stickers[0].Image == nil || day.Stickers[1].Image != nil || day.Stickers[2].Image != nil {
		t.Errorf("unexpected sticker images: %+v", day.Stickers)
	}
	if day.MissingAssets != 1 {
		t.Errorf("expected 1 missing asset, got %d", day.MissingAssets)
	}
	if store.Queries[0].Columns != database.AllColumns {
		t.Errorf("expected all columns for day fetch, got %b", store.Queries[0].Columns)
	}
}

func TestFetchDay_NoEntry(t *testing.T) {
	p := NewProvider(mock.NewMockEntryStore(), &fakeImages{}, nil)
	day, err := p.FetchDay(context.Background(), "alice", date("2026-03-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Entry != nil || day.Photo != nil {
		t.Errorf("expected empty day, got %+v", day)
	}
}

func TestFetchWeek_SkipsEmptyDays(t *testing.T) {
	store := mock.NewMockEntryStore()
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-02"), Note: "one", PhotoPath: "p/1.jpg"})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-03"), Note: ""})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-03-04"), Note: "three", PhotoPath: "p/3.jpg"})
	images := &fakeImages{broken: map[string]bool{"p/3.jpg": true}}
	p := NewProvider(store, images, nil)

	week, err := p.FetchWeek(context.Background(), "alice", date("2026-03-04"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if week.Monday.Format(time.DateOnly) != "2026-03-02" {
		t.Errorf("expected Monday anchor, got %s", week.Monday.Format(time.DateOnly))
	}
	if len(week.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(week.Days))
	}
	if week.Days[0].Photo == nil || week.Days[1].Photo != nil {
		t.Error("expected first photo loaded and second missing")
	}
	if week.MissingAssets != 1 {
		t.Errorf("expected 1 missing asset, got %d", week.MissingAssets)
	}
	if q := store.Queries[0]; q.Columns.Has(database.ColCreatedAt) {
		t.Error("week fetch should not load created_at")
	}
}

func TestFetchMonth(t *testing.T) {
	store := mock.NewMockEntryStore()
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-05-15"), PhotoPath: "p/15.jpg"})
	store.AddEntry(database.Entry{Owner: "alice", Date: date("2026-05-20"), Note: " "})
	p := NewProvider(store, &fakeImages{}, nil)

	month, err := p.FetchMonth(context.Background(), "alice", YearMonth{2026, time.May})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d, ok := month.Days[15]; !ok || d.Photo == nil || !d.HasContent {
		t.Errorf("expected day 15 with photo, got %+v", d)
	}
	if d := month.Days[20]; d.HasContent {
		t.Error("expected day 20 without content")
	}
	q := store.Queries[0]
	if q.From.Format(time.DateOnly) != "2026-05-01" || q.To.Format(time.DateOnly) != "2026-05-31" {
		t.Errorf("unexpected month bounds %v..%v", q.From, q.To)
	}
}

func TestFetchFavorites_IgnoresRange(t *testing.T) {
	store := seedStore()
	p := NewProvider(store, &fakeImages{}, nil)

	favorites, err := p.FetchFavorites(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2025-12-24", "2026-03-04", "2026-04-20"}
	if len(favorites) != len(want) {
		t.Fatalf("expected %d favorites, got %d", len(want), len(favorites))
	}
	for i, f := range favorites {
		if f.Date.Format(time.DateOnly) != want[i] {
			t.Errorf("expected %s, got %s", want[i], f.Date.Format(time.DateOnly))
		}
		if f.Photo != nil {
			t.Error("photos should not be materialized until a page needs them")
		}
	}
	q := store.Queries[0]
	if !q.LikedOnly || !q.From.IsZero() || !q.To.IsZero() {
		t.Errorf("expected unbounded liked-only query, got %+v", q)
	}
}

func TestFetchFavorites_None(t *testing.T) {
	p := NewProvider(mock.NewMockEntryStore(), &fakeImages{}, nil)
	favorites, err := p.FetchFavorites(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if favorites == nil || len(favorites) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", favorites)
	}
}

func TestMaterializeFavorites(t *testing.T) {
	images := &fakeImages{broken: map[string]bool{"p/b.jpg": true}}
	p := NewProvider(mock.NewMockEntryStore(), images, nil)
	items := []FavoriteData{
		{PhotoPath: "p/a.jpg"},
		{PhotoPath: "p/b.jpg"},
		{Note: "no photo"},
	}
	missing := p.MaterializeFavorites(context.Background(), items)
	if missing != 1 {
		t.Errorf("expected 1 missing, got %d", missing)
	}
	if items[0].Photo == nil || items[1].Photo != nil || items[2].Photo != nil {
		t.Errorf("unexpected photos: %+v", items)
	}
}
