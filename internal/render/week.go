package render

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/materialize"
	"github.com/kozaktomas/photo-diary/internal/paginate"
)

const (
	continuedLabel = "(continued)"
	continuedHint  = "(continued" + constants.Ellipsis + ")"
)

// MeasureWeek wraps each day's note to the card caption width and returns
// the measured cards together with the week page metrics.
func (r *Renderer) MeasureWeek(week *entries.WeekData) ([]paginate.Card, paginate.Metrics, error) {
	engine, err := r.CaptionEngine()
	if err != nil {
		return nil, paginate.Metrics{}, err
	}
	m := r.layout.WeekMetrics(engine.LineHeight())
	width := r.layout.CaptionWidth()

	cards := make([]paginate.Card, 0, len(week.Days))
	for _, d := range week.Days {
		note := ""
		if d.Entry != nil {
			note = d.Entry.Note
		}
		cards = append(cards, paginate.NewCard(d.Date, d.Entry, engine.Wrap(strings.TrimSpace(note), width), m))
	}
	return cards, m, nil
}

// DrawWeekPage renders one page of a week. pageInWeek is 1-based.
func (r *Renderer) DrawWeekPage(week *entries.WeekData, slices []paginate.Slice, pageInWeek, pagesInWeek int) (PageImage, error) {
	fs, err := r.faces()
	if err != nil {
		return PageImage{}, err
	}
	engine, err := r.CaptionEngine()
	if err != nil {
		return PageImage{}, err
	}
	lh := engine.LineHeight()

	photos := make(map[string]*materialize.Image, len(week.Days))
	for _, d := range week.Days {
		photos[d.Date.Format(constants.DateLayout)] = d.Photo
	}

	l := r.layout
	dc := r.newCanvas()

	_, isoWeek := week.Monday.ISOWeek()
	title := r.printer.Sprintf("Week %d", isoWeek)
	subtitle := fmt.Sprintf("%s – %s", week.Monday.Format("2 Jan"), week.Sunday().Format("2 Jan 2006"))
	if pagesInWeek > 1 {
		subtitle += r.printer.Sprintf(" · page %d/%d", pageInWeek, pagesInWeek)
	}
	r.drawHeader(dc, fs, title, subtitle)

	x := l.Margin
	y := l.ContentTop()
	w := l.ContentWidth()
	for _, s := range slices {
		h := s.Height
		drawShadow(dc, x, y, w, h, l.CardRadius)
		dc.SetHexColor(r.theme.Brand.Card)
		dc.DrawRoundedRectangle(x, y, w, h, l.CardRadius)
		_ = dc.Fill()

		ix := x + l.CardPadding
		top := y + l.CardPadding
		var captionTop float64

		if s.IsFirstSlice {
			day := s.Card.Date
			dc.SetHexColor(r.theme.Brand.Muted)
			dc.SetFont(fs.small)
			dc.DrawString(strings.ToUpper(day.Format("Mon")), ix, top+fs.small.Metrics().Ascent)
			dc.SetHexColor(r.theme.Brand.Ink)
			dc.SetFont(fs.title)
			dc.DrawString(r.printer.Sprintf("%d", day.Day()), ix, top+fs.small.Metrics().LineHeight()+fs.title.Metrics().Ascent)

			photoX := ix + l.DayColumnWidth
			photoW := w - 2*l.CardPadding - l.DayColumnWidth
			if photo := photos[day.Format(constants.DateLayout)]; photo != nil {
				drawCover(dc, photo.Decoded(), photoX, top, photoW, l.WeekPhotoHeight)
			} else {
				r.drawPlusTile(dc, photoX, top, photoW, l.WeekPhotoHeight)
			}
			if s.Card.Entry != nil && s.Card.Entry.Liked {
				drawHeart(dc, photoX+photoW-28, top+28, 32, r.theme.Brand.Primary)
			}
			captionTop = top + l.WeekPhotoHeight + l.CaptionGap
		} else {
			label := continuedLabel + " " + s.Card.Date.Format("Monday, 2 January")
			dc.SetHexColor(r.theme.Brand.Muted)
			drawLines(dc, fs.italic, []string{label}, ix, top, l.ContinuedHeaderHeight)
			captionTop = top + l.ContinuedHeaderHeight
		}

		dc.SetHexColor(r.theme.Brand.Ink)
		drawLines(dc, fs.body, s.Lines(), ix, captionTop, lh)

		if !s.IsLastSlice {
			dc.SetHexColor(r.theme.Brand.Muted)
			hintTop := y + h - l.CardPadding - l.HintHeight
			right := x + w - l.CardPadding
			drawLines(dc, fs.italic, []string{continuedHint}, right-fs.italic.Advance(continuedHint), hintTop, l.HintHeight)
		}

		y += h + l.CardGap
	}

	r.drawFooter(dc, fs)

	label := week.Monday.Format(constants.DateLayout)
	if pagesInWeek > 1 {
		label = fmt.Sprintf("%s (%d/%d)", label, pageInWeek, pagesInWeek)
	}
	return r.finish(dc, constants.ModeWeek, label)
}
