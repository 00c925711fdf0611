// Package export drives a whole export run: it lists the content-bearing
// units of a request, fetches and renders them one page at a time and
// returns the numbered page list with a report of what went wrong softly.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/paginate"
	"github.com/kozaktomas/photo-diary/internal/render"
)

var (
	ErrInvalidMode   = errors.New("invalid export mode")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("from date is after to date")
	ErrFontsNotReady = errors.New("fonts not ready")
)

// Modes lists the supported export modes.
var Modes = []string{constants.ModeDay, constants.ModeWeek, constants.ModeMonth, constants.ModeFavorites}

// FontService must be ready before anything is drawn.
type FontService interface {
	Ready(ctx context.Context) error
}

// DataProvider is the entry access an export needs.
type DataProvider interface {
	DatesWithContent(ctx context.Context, owner string, from, to time.Time) ([]time.Time, error)
	WeeksWithContent(ctx context.Context, owner string, from, to time.Time) ([]time.Time, error)
	MonthsWithContent(ctx context.Context, owner string, from, to time.Time) ([]entries.YearMonth, error)
	FetchDay(ctx context.Context, owner string, date time.Time) (*entries.DayData, error)
	FetchWeek(ctx context.Context, owner string, monday time.Time) (*entries.WeekData, error)
	FetchMonth(ctx context.Context, owner string, ym entries.YearMonth) (*entries.MonthData, error)
	FetchFavorites(ctx context.Context, owner string) ([]entries.FavoriteData, error)
	MaterializeFavorites(ctx context.Context, items []entries.FavoriteData) int
}

// Request describes one export run. From and To are YYYY-MM-DD and are
// ignored in favorites mode.
type Request struct {
	Mode  string
	From  string
	To    string
	Owner string

	// OnProgress is called after each rendered unit (day, week, month or
	// favorites page) with the number of units done so far.
	OnProgress func(done, total int)
}

// Report summarizes the soft failures of a run.
type Report struct {
	Mode          string                     `json:"mode"`
	Pages         int                        `json:"pages"`
	Labels        []string                   `json:"labels"`
	Placeholders  int                        `json:"placeholders"`
	MissingAssets int                        `json:"missing_assets"`
	Warnings      []string                   `json:"warnings,omitempty"`
	Validation    []render.ValidationWarning `json:"validation,omitempty"`
}

// Result is the output of Build.
type Result struct {
	Pages  []render.PageImage
	Report Report
}

// Exporter renders export requests.
type Exporter struct {
	data     DataProvider
	fonts    FontService
	renderer *render.Renderer
	logger   *slog.Logger
}

// New creates an exporter. A nil logger discards all output.
func New(data DataProvider, fonts FontService, renderer *render.Renderer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{data: data, fonts: fonts, renderer: renderer, logger: logger}
}

// BuildPages renders req and returns only the pages.
func (e *Exporter) BuildPages(ctx context.Context, req Request) ([]render.PageImage, error) {
	res, err := e.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Pages, nil
}

// parsedRequest is a validated Request.
type parsedRequest struct {
	Request
	from, to time.Time
}

// Validate checks mode and dates without touching the store.
func Validate(req Request) error {
	_, err := parseRequest(req)
	return err
}

func parseRequest(req Request) (parsedRequest, error) {
	p := parsedRequest{Request: req}
	if !slices.Contains(Modes, req.Mode) {
		return p, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
	if req.Mode == constants.ModeFavorites {
		return p, nil
	}

	var err error
	if p.from, err = database.ParseDate(req.From); err != nil {
		return p, fmt.Errorf("%w: from %q", ErrInvalidDate, req.From)
	}
	if p.to, err = database.ParseDate(req.To); err != nil {
		return p, fmt.Errorf("%w: to %q", ErrInvalidDate, req.To)
	}
	if p.from.After(p.to) {
		return p, fmt.Errorf("%w: %s > %s", ErrInvalidRange, req.From, req.To)
	}
	return p, nil
}

// Build renders req page by page. Cancellation is observed between pages and
// returns the context error without any pages.
func (e *Exporter) Build(ctx context.Context, req Request) (*Result, error) {
	p, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	if err := e.fonts.Ready(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontsNotReady, err)
	}

	run := &run{
		exporter: e,
		req:      p,
		result:   &Result{Pages: []render.PageImage{}, Report: Report{Mode: p.Mode, Labels: []string{}}},
		logger:   e.logger.With("mode", p.Mode, "owner", p.Owner),
	}
	start := time.Now()

	switch p.Mode {
	case constants.ModeDay:
		err = run.days(ctx)
	case constants.ModeWeek:
		err = run.weeks(ctx)
	case constants.ModeMonth:
		err = run.months(ctx)
	case constants.ModeFavorites:
		err = run.favorites(ctx)
	}
	if err != nil {
		return nil, err
	}

	run.normalize()
	run.logger.Info("export finished",
		"pages", len(run.result.Pages),
		"placeholders", run.result.Report.Placeholders,
		"missing_assets", run.result.Report.MissingAssets,
		"duration", time.Since(start))
	return run.result, nil
}

// run carries the state of one Build call.
type run struct {
	exporter *Exporter
	req      parsedRequest
	result   *Result
	logger   *slog.Logger
}

func (r *run) add(page render.PageImage) {
	r.result.Pages = append(r.result.Pages, page)
	r.result.Report.Labels = append(r.result.Report.Labels, page.Label)
}

func (r *run) warn(format string, args ...any) {
	r.result.Report.Warnings = append(r.result.Report.Warnings, fmt.Sprintf(format, args...))
}

func (r *run) progress(done, total int) {
	if r.req.OnProgress != nil {
		r.req.OnProgress(done, total)
	}
}

// placeholder substitutes a "no data" page for a unit whose rows could not be fetched.
// A fetch that failed because the run was cancelled ends the run instead.
func (r *run) placeholder(ctx context.Context, label string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.logger.Warn("unit fetch failed, rendering placeholder", "unit", label, "error", cause)
	page, err := r.exporter.renderer.DrawPlaceholder(r.req.Mode, label)
	if err != nil {
		return fmt.Errorf("render placeholder %s: %w", label, err)
	}
	r.add(page)
	r.result.Report.Placeholders++
	r.warn("%s: no data (%v)", label, cause)
	return nil
}

func (r *run) missing(label string, n int) {
	if n == 0 {
		return
	}
	r.result.Report.MissingAssets += n
	r.warn("%s: %d asset(s) could not be loaded", label, n)
}

func (r *run) days(ctx context.Context) error {
	dates, err := r.exporter.data.DatesWithContent(ctx, r.req.Owner, r.req.from, r.req.to)
	if err != nil {
		return err
	}
	r.logger.Debug("day units", "count", len(dates))

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := date.Format(constants.DateLayout)
		day, err := r.exporter.data.FetchDay(ctx, r.req.Owner, date)
		if err != nil {
			if err := r.placeholder(ctx, label, err); err != nil {
				return err
			}
			r.progress(i+1, len(dates))
			continue
		}
		page, err := r.exporter.renderer.DrawDay(day)
		if err != nil {
			return fmt.Errorf("render day %s: %w", label, err)
		}
		r.add(page)
		r.missing(label, day.MissingAssets)
		r.progress(i+1, len(dates))
	}
	return nil
}

func (r *run) weeks(ctx context.Context) error {
	mondays, err := r.exporter.data.WeeksWithContent(ctx, r.req.Owner, r.req.from, r.req.to)
	if err != nil {
		return err
	}
	r.logger.Debug("week units", "count", len(mondays))

	for i, monday := range mondays {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := monday.Format(constants.DateLayout)
		week, err := r.exporter.data.FetchWeek(ctx, r.req.Owner, monday)
		if err != nil {
			if err := r.placeholder(ctx, label, err); err != nil {
				return err
			}
			r.progress(i+1, len(mondays))
			continue
		}
		if err := r.week(ctx, week); err != nil {
			return err
		}
		r.missing(label, week.MissingAssets)
		r.progress(i+1, len(mondays))
	}
	return nil
}

// week measures, slices and draws the pages of one week.
func (r *run) week(ctx context.Context, week *entries.WeekData) error {
	label := week.Monday.Format(constants.DateLayout)
	if len(week.Days) == 0 {
		// The entries changed between listing and fetching.
		r.logger.Warn("week has no content", "week", label)
		return nil
	}

	cards, metrics, err := r.exporter.renderer.MeasureWeek(week)
	if err != nil {
		return fmt.Errorf("measure week %s: %w", label, err)
	}
	pages := paginate.Paginate(cards, metrics)
	r.logger.Debug("week paginated", "week", label, "cards", len(cards), "pages", len(pages))

	for i, pageSlices := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageNumber := len(r.result.Pages) + 1
		for _, w := range render.ValidatePage(metrics, pageSlices, pageNumber) {
			r.logger.Warn("layout validation", "week", label, "page", w.PageNumber, "slot", w.SlotIndex, "severity", w.Severity, "message", w.Message)
			r.result.Report.Validation = append(r.result.Report.Validation, w)
		}
		page, err := r.exporter.renderer.DrawWeekPage(week, pageSlices, i+1, len(pages))
		if err != nil {
			return fmt.Errorf("render week %s page %d: %w", label, i+1, err)
		}
		r.add(page)
	}
	return nil
}

func (r *run) months(ctx context.Context) error {
	months, err := r.exporter.data.MonthsWithContent(ctx, r.req.Owner, r.req.from, r.req.to)
	if err != nil {
		return err
	}
	r.logger.Debug("month units", "count", len(months))

	for i, ym := range months {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := ym.String()
		month, err := r.exporter.data.FetchMonth(ctx, r.req.Owner, ym)
		if err != nil {
			if err := r.placeholder(ctx, label, err); err != nil {
				return err
			}
			r.progress(i+1, len(months))
			continue
		}
		page, err := r.exporter.renderer.DrawMonth(month)
		if err != nil {
			return fmt.Errorf("render month %s: %w", label, err)
		}
		r.add(page)
		r.missing(label, month.MissingAssets)
		r.progress(i+1, len(months))
	}
	return nil
}

// favorites paginates every liked entry regardless of the requested range.
// Photos are materialized per page and released after drawing.
func (r *run) favorites(ctx context.Context) error {
	items, err := r.exporter.data.FetchFavorites(ctx, r.req.Owner)
	if err != nil {
		return r.placeholder(ctx, constants.ModeFavorites, err)
	}
	if len(items) == 0 {
		return nil
	}

	perPage, err := r.exporter.renderer.FavoritesPerPage()
	if err != nil {
		return fmt.Errorf("favorites capacity: %w", err)
	}
	ranges := paginate.GridPages(len(items), perPage)
	r.logger.Debug("favorites paginated", "items", len(items), "per_page", perPage, "pages", len(ranges))

	for i, rg := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageItems := items[rg.Start:rg.End]
		missing := r.exporter.data.MaterializeFavorites(ctx, pageItems)
		page, err := r.exporter.renderer.DrawFavoritesPage(pageItems, i, len(ranges))
		for j := range pageItems {
			pageItems[j].Photo = nil
		}
		if err != nil {
			return fmt.Errorf("render favorites page %d: %w", i+1, err)
		}
		r.add(page)
		r.missing(page.Label, missing)
		r.progress(i+1, len(ranges))
	}
	return nil
}

// normalize numbers the concatenated pages 1..N.
func (r *run) normalize() {
	total := len(r.result.Pages)
	for i := range r.result.Pages {
		r.result.Pages[i].PageNumber = i + 1
		r.result.Pages[i].TotalPages = total
	}
	r.result.Report.Pages = total
}
