// Package entries reads diary entries for export and classifies which dates,
// weeks and months carry displayable content.
package entries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/materialize"
)

// ImageSource materializes the assets of one page.
type ImageSource interface {
	MaterializeAll(ctx context.Context, refs []string) map[string]*materialize.Image
}

// Column sets loaded per export mode.
const (
	rangeColumns     = database.ColNote | database.ColPhoto | database.ColStickers
	dayColumns       = database.AllColumns
	weekColumns      = database.ColNote | database.ColPhoto | database.ColStickers | database.ColLiked
	monthColumns     = database.ColPhoto | database.ColNote | database.ColStickers
	favoritesColumns = database.ColNote | database.ColPhoto
)

// HasContent reports whether an entry has a non-blank note, a photo or at
// least one sticker.
func HasContent(e database.Entry) bool {
	return strings.TrimSpace(e.Note) != "" || strings.TrimSpace(e.PhotoPath) != "" || len(e.Stickers) > 0
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = database.TruncateDate(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// First returns the first day of the month.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last day of the month.
func (ym YearMonth) Last() time.Time {
	return ym.First().AddDate(0, 1, -1)
}

// StickerImage pairs a sticker with its materialized raster. Image is nil
// for emoji stickers and for assets that failed to load.
type StickerImage struct {
	Sticker database.Sticker
	Image   *materialize.Image
}

// DayData is everything the day polaroid needs.
type DayData struct {
	Date          time.Time
	Entry         *database.Entry
	Photo         *materialize.Image
	Stickers      []StickerImage
	MissingAssets int
}

// WeekDay is one content-bearing day of a week.
type WeekDay struct {
	Date  time.Time
	Entry *database.Entry
	Photo *materialize.Image
}

// WeekData holds the content-bearing days of one Monday-anchored week.
type WeekData struct {
	Monday        time.Time
	Days          []WeekDay
	MissingAssets int
}

// Sunday returns the last day of the week.
func (w *WeekData) Sunday() time.Time {
	return w.Monday.AddDate(0, 0, 6)
}

// MonthDay is one calendar cell of a month.
type MonthDay struct {
	Date       time.Time
	HasContent bool
	Photo      *materialize.Image
}

// MonthData holds the days of one month that have an entry, keyed by day of month.
type MonthData struct {
	Month         YearMonth
	Days          map[int]MonthDay
	MissingAssets int
}

// FavoriteData is one liked entry. Photo is filled by MaterializeFavorites.
type FavoriteData struct {
	Date      time.Time
	Note      string
	PhotoPath string
	Photo     *materialize.Image
}

// Provider queries the entry store and joins in materialized images.
type Provider struct {
	reader database.EntryReader
	images ImageSource
	logger *slog.Logger
}

// NewProvider creates a provider.
func NewProvider(reader database.EntryReader, images ImageSource, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{reader: reader, images: images, logger: logger}
}

// contentEntries runs the single range query behind all classifications.
func (p *Provider) contentEntries(ctx context.Context, owner string, from, to time.Time) ([]database.Entry, error) {
	list, err := p.reader.ListEntries(ctx, database.EntryQuery{
		Owner:   owner,
		From:    database.TruncateDate(from),
		To:      database.TruncateDate(to),
		Columns: rangeColumns,
	})
	if err != nil {
		return nil, fmt.Errorf("list entries %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	result := list[:0]
	for _, e := range list {
		if HasContent(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

// DatesWithContent returns the content-bearing dates in [from, to], ascending.
func (p *Provider) DatesWithContent(ctx context.Context, owner string, from, to time.Time) ([]time.Time, error) {
	list, err := p.contentEntries(ctx, owner, from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(list))
	for _, e := range list {
		dates = append(dates, database.TruncateDate(e.Date))
	}
	return dates, nil
}

// WeeksWithContent returns the Monday anchors of weeks in [from, to] with at
// least one content-bearing date.
func (p *Provider) WeeksWithContent(ctx context.Context, owner string, from, to time.Time) ([]time.Time, error) {
	dates, err := p.DatesWithContent(ctx, owner, from, to)
	if err != nil {
		return nil, err
	}
	weeks := []time.Time{}
	for _, d := range dates {
		monday := WeekStart(d)
		if len(weeks) == 0 || !weeks[len(weeks)-1].Equal(monday) {
			weeks = append(weeks, monday)
		}
	}
	return weeks, nil
}

// MonthsWithContent returns the months in [from, to] with at least one
// content-bearing date.
func (p *Provider) MonthsWithContent(ctx context.Context, owner string, from, to time.Time) ([]YearMonth, error) {
	dates, err := p.DatesWithContent(ctx, owner, from, to)
	if err != nil {
		return nil, err
	}
	months := []YearMonth{}
	for _, d := range dates {
		ym := YearMonth{Year: d.Year(), Month: d.Month()}
		if len(months) == 0 || months[len(months)-1] != ym {
			months = append(months, ym)
		}
	}
	return months, nil
}

// FetchDay loads one day with its photo and sticker images.
func (p *Provider) FetchDay(ctx context.Context, owner string, date time.Time) (*DayData, error) {
	date = database.TruncateDate(date)
	list, err := p.reader.ListEntries(ctx, database.EntryQuery{Owner: owner, From: date, To: date, Columns: dayColumns})
	if err != nil {
		return nil, fmt.Errorf("fetch day %s: %w", date.Format(time.DateOnly), err)
	}

	day := &DayData{Date: date}
	if len(list) == 0 {
		return day, nil
	}
	entry := list[0]
	day.Entry = &entry
	p.warnInvalidStickers(entry)

	refs := make([]string, 0, len(entry.Stickers)+1)
	if entry.PhotoPath != "" {
		refs = append(refs, entry.PhotoPath)
	}
	for _, s := range entry.Stickers {
		if s.Kind == database.StickerImage {
			refs = append(refs, s.Ref)
		}
	}
	images := p.images.MaterializeAll(ctx, refs)

	if entry.PhotoPath != "" {
		day.Photo = images[entry.PhotoPath]
		if day.Photo == nil {
			day.MissingAssets++
		}
	}
	for _, s := range entry.Stickers {
		si := StickerImage{Sticker: s}
		if s.Kind == database.StickerImage {
			si.Image = images[s.Ref]
			if si.Image == nil {
				day.MissingAssets++
			}
		}
		day.Stickers = append(day.Stickers, si)
	}
	return day, nil
}

// FetchWeek loads the content-bearing days of the week starting on monday.
func (p *Provider) FetchWeek(ctx context.Context, owner string, monday time.Time) (*WeekData, error) {
	monday = WeekStart(monday)
	week := &WeekData{Monday: monday, Days: []WeekDay{}}

	list, err := p.reader.ListEntries(ctx, database.EntryQuery{
		Owner:   owner,
		From:    monday,
		To:      week.Sunday(),
		Columns: weekColumns,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch week %s: %w", monday.Format(time.DateOnly), err)
	}

	var refs []string
	for _, e := range list {
		if e.PhotoPath != "" {
			refs = append(refs, e.PhotoPath)
		}
	}
	images := p.images.MaterializeAll(ctx, refs)

	for _, e := range list {
		if !HasContent(e) {
			continue
		}
		entry := e
		wd := WeekDay{Date: database.TruncateDate(e.Date), Entry: &entry}
		if e.PhotoPath != "" {
			wd.Photo = images[e.PhotoPath]
			if wd.Photo == nil {
				week.MissingAssets++
			}
		}
		week.Days = append(week.Days, wd)
	}
	return week, nil
}

// FetchMonth loads the entries of a month with their photos.
func (p *Provider) FetchMonth(ctx context.Context, owner string, ym YearMonth) (*MonthData, error) {
	list, err := p.reader.ListEntries(ctx, database.EntryQuery{
		Owner:   owner,
		From:    ym.First(),
		To:      ym.Last(),
		Columns: monthColumns,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch month %s: %w", ym, err)
	}

	var refs []string
	for _, e := range list {
		if e.PhotoPath != "" {
			refs = append(refs, e.PhotoPath)
		}
	}
	images := p.images.MaterializeAll(ctx, refs)

	month := &MonthData{Month: ym, Days: make(map[int]MonthDay, len(list))}
	for _, e := range list {
		md := MonthDay{Date: database.TruncateDate(e.Date), HasContent: HasContent(e)}
		if e.PhotoPath != "" {
			md.Photo = images[e.PhotoPath]
			if md.Photo == nil {
				month.MissingAssets++
			}
		}
		month.Days[e.Date.Day()] = md
	}
	return month, nil
}

// FetchFavorites returns every liked entry of owner, oldest first. The
// export date range does not apply to favorites.
func (p *Provider) FetchFavorites(ctx context.Context, owner string) ([]FavoriteData, error) {
	list, err := p.reader.ListEntries(ctx, database.EntryQuery{
		Owner:     owner,
		LikedOnly: true,
		Columns:   favoritesColumns,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch favorites: %w", err)
	}
	favorites := make([]FavoriteData, 0, len(list))
	for _, e := range list {
		favorites = append(favorites, FavoriteData{
			Date:      database.TruncateDate(e.Date),
			Note:      e.Note,
			PhotoPath: e.PhotoPath,
		})
	}
	return favorites, nil
}

// MaterializeFavorites fills the photos of one favorites page in place and
// returns the number of photos that could not be loaded.
func (p *Provider) MaterializeFavorites(ctx context.Context, items []FavoriteData) int {
	var refs []string
	for _, f := range items {
		if f.PhotoPath != "" {
			refs = append(refs, f.PhotoPath)
		}
	}
	images := p.images.MaterializeAll(ctx, refs)

	missing := 0
	for i := range items {
		if items[i].PhotoPath == "" {
			continue
		}
		items[i].Photo = images[items[i].PhotoPath]
		if items[i].Photo == nil {
			missing++
		}
	}
	return missing
}

func (p *Provider) warnInvalidStickers(e database.Entry) {
	if e.InvalidStickers > 0 {
		p.logger.Warn("dropped malformed stickers", "date", e.DateKey(), "count", e.InvalidStickers)
	}
}
