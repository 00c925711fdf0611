package render

import (
	"math"
	"strings"
	"time"

	"github.com/gogpu/gg"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/entries"
)

// MonthGeometry describes the Monday-aligned calendar grid of a month.
type MonthGeometry struct {
	Offset int // padding cells before day 1
	Days   int // days in the month
	Rows   int
}

// MonthCells returns the grid geometry of a month: seven columns starting
// on Monday, with as many rows as the padded month needs.
func MonthCells(year int, month time.Month) MonthGeometry {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7
	days := first.AddDate(0, 1, -1).Day()
	return MonthGeometry{
		Offset: offset,
		Days:   days,
		Rows:   (offset + days + 6) / 7,
	}
}

// Cell returns the row and column of a day of the month (1-based day).
func (g MonthGeometry) Cell(day int) (row, col int) {
	i := g.Offset + day - 1
	return i / 7, i % 7
}

const weekdayHeaderHeight = 36

// monthCellSize returns the side of a square cell that fits both the content
// width and the available height.
func (r *Renderer) monthCellSize(rows int) float64 {
	l := r.layout
	gap := l.MonthGridGap
	byWidth := (l.ContentWidth() - 6*gap) / 7
	byHeight := (l.AvailableHeight() - weekdayHeaderHeight - float64(rows-1)*gap) / float64(rows)
	return math.Floor(math.Min(byWidth, byHeight))
}

// DrawMonth renders the calendar grid of one month.
func (r *Renderer) DrawMonth(month *entries.MonthData) (PageImage, error) {
	fs, err := r.faces()
	if err != nil {
		return PageImage{}, err
	}

	l := r.layout
	dc := r.newCanvas()
	first := month.Month.First()
	r.drawHeader(dc, fs, first.Format("January 2006"), "")

	g := MonthCells(month.Month.Year, month.Month.Month)
	size := r.monthCellSize(g.Rows)
	gap := l.MonthGridGap
	gridW := 7*size + 6*gap
	left := l.Margin + (l.ContentWidth()-gridW)/2
	top := l.ContentTop() + weekdayHeaderHeight

	dc.SetFont(fs.small)
	dc.SetHexColor(r.theme.Brand.Muted)
	for col := range 7 {
		name := strings.ToUpper(first.AddDate(0, 0, col-g.Offset).Format("Mon"))
		x := left + float64(col)*(size+gap)
		dc.DrawString(name, x+(size-fs.small.Advance(name))/2, top-12)
	}

	for i := range g.Rows * 7 {
		row, col := i/7, i%7
		x := left + float64(col)*(size+gap)
		y := top + float64(row)*(size+gap)
		date := first.AddDate(0, 0, i-g.Offset)

		if date.Month() != first.Month() {
			setHexAlpha(dc, r.theme.Brand.Neutral, 0.45)
			dc.DrawRectangle(x, y, size, size)
			_ = dc.Fill()
			setHexAlpha(dc, r.theme.Brand.Muted, 0.45)
			r.drawCellNumber(dc, fs, date.Day(), x, y)
			continue
		}

		cell, ok := month.Days[date.Day()]
		if ok && cell.Photo != nil {
			drawCover(dc, cell.Photo.Decoded(), x, y, size, size)
			dc.SetRGBA(0, 0, 0, 0.55)
			r.drawCellNumber(dc, fs, date.Day(), x+2, y+2)
			dc.SetHexColor(r.theme.Brand.Card)
			r.drawCellNumber(dc, fs, date.Day(), x, y)
			continue
		}

		dc.SetHexColor(r.theme.Brand.Neutral)
		dc.DrawRectangle(x, y, size, size)
		_ = dc.Fill()
		dc.SetHexColor(r.theme.Brand.Ink)
		r.drawCellNumber(dc, fs, date.Day(), x, y)
	}

	r.drawFooter(dc, fs)
	return r.finish(dc, constants.ModeMonth, month.Month.String())
}

// drawCellNumber writes a day number in the top left of a cell with the current color.
func (r *Renderer) drawCellNumber(dc *gg.Context, fs *faceSet, day int, x, y float64) {
	dc.SetFont(fs.bold)
	dc.DrawString(r.printer.Sprintf("%d", day), x+10, y+10+fs.bold.Metrics().Ascent)
}
