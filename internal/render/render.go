// Package render composites export pages on a gg canvas and encodes them as PNG.
//
// Every drawer is pure given its input: the same data, layout and theme
// always produce the same pixels, apart from the export date in the footer.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/fonts"
	"github.com/kozaktomas/photo-diary/internal/textlayout"
)

// FontSource hands out sized faces.
type FontSource interface {
	Face(style fonts.Style, size float64) (text.Face, error)
}

// PageImage is one rendered page. It is not modified after it is returned.
type PageImage struct {
	PNG         []byte
	Width       int
	Height      int
	PageNumber  int
	TotalPages  int
	Mode        string
	Label       string
	Placeholder bool
}

// Renderer draws pages with a fixed layout and theme.
type Renderer struct {
	layout  LayoutConfig
	theme   config.ThemeConfig
	fonts   FontSource
	printer *message.Printer
	now     func() time.Time
}

// NewRenderer creates a renderer.
func NewRenderer(layout LayoutConfig, theme config.ThemeConfig, fonts FontSource) *Renderer {
	tag, err := language.Parse(theme.Locale)
	if err != nil {
		tag = language.English
	}
	return &Renderer{
		layout:  layout,
		theme:   theme,
		fonts:   fonts,
		printer: message.NewPrinter(tag),
		now:     time.Now,
	}
}

// SetClock replaces the clock used for the footer export date.
func (r *Renderer) SetClock(now func() time.Time) {
	r.now = now
}

// Layout returns the renderer's layout.
func (r *Renderer) Layout() LayoutConfig {
	return r.layout
}

type faceSet struct {
	title  text.Face
	header text.Face
	body   text.Face
	small  text.Face
	italic text.Face
	bold   text.Face
}

func (r *Renderer) faces() (*faceSet, error) {
	f := r.theme.Fonts
	set := &faceSet{}
	specs := []struct {
		target *text.Face
		style  fonts.Style
		size   float64
	}{
		{&set.title, fonts.Bold, f.Title},
		{&set.header, fonts.Bold, f.Header},
		{&set.body, fonts.Regular, f.Body},
		{&set.small, fonts.Regular, f.Small},
		{&set.italic, fonts.Italic, f.Body},
		{&set.bold, fonts.Bold, f.Body},
	}
	for _, spec := range specs {
		face, err := r.fonts.Face(spec.style, spec.size)
		if err != nil {
			return nil, fmt.Errorf("load %s face: %w", spec.style, err)
		}
		*spec.target = face
	}
	return set, nil
}

// CaptionEngine returns the text engine for captions in the body face.
func (r *Renderer) CaptionEngine() (*textlayout.Engine, error) {
	face, err := r.fonts.Face(fonts.Regular, r.theme.Fonts.Body)
	if err != nil {
		return nil, fmt.Errorf("load caption face: %w", err)
	}
	return textlayout.New(face, r.theme.Fonts.Body, r.theme.Fonts.LineHeight), nil
}

// newCanvas returns a page-sized context filled with the paper color.
func (r *Renderer) newCanvas() *gg.Context {
	dc := gg.NewContext(r.layout.PageWidth, r.layout.PageHeight)
	dc.SetHexColor(r.theme.Brand.Paper)
	dc.DrawRectangle(0, 0, float64(r.layout.PageWidth), float64(r.layout.PageHeight))
	_ = dc.Fill()
	return dc
}

// finish encodes the canvas and releases it.
func (r *Renderer) finish(dc *gg.Context, mode, label string) (PageImage, error) {
	defer dc.Close()
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return PageImage{}, fmt.Errorf("encode page png: %w", err)
	}
	return PageImage{
		PNG:        buf.Bytes(),
		Width:      r.layout.PageWidth,
		Height:     r.layout.PageHeight,
		PageNumber: 1,
		TotalPages: 1,
		Mode:       mode,
		Label:      label,
	}, nil
}

// drawHeader draws the page title and an optional subtitle in the header zone.
func (r *Renderer) drawHeader(dc *gg.Context, fs *faceSet, title, subtitle string) {
	x := r.layout.Margin
	dc.SetHexColor(r.theme.Brand.Ink)
	dc.SetFont(fs.title)
	dc.DrawString(title, x, r.layout.Margin+fs.title.Metrics().Ascent)

	if subtitle != "" {
		dc.SetHexColor(r.theme.Brand.Muted)
		dc.SetFont(fs.body)
		dc.DrawString(subtitle, x, r.layout.Margin+fs.title.Metrics().LineHeight()+fs.body.Metrics().Ascent)
	}

	dc.SetHexColor(r.theme.Brand.Neutral)
	dc.SetLineWidth(2)
	y := r.layout.ContentTop() - 16
	dc.DrawLine(x, y, x+r.layout.ContentWidth(), y)
	_ = dc.Stroke()
}

// drawFooter puts the brand name on the left and the export date on the right.
func (r *Renderer) drawFooter(dc *gg.Context, fs *faceSet) {
	baseline := float64(r.layout.PageHeight) - r.layout.Margin
	dc.SetFont(fs.small)
	dc.SetHexColor(r.theme.Brand.Primary)
	dc.DrawString(r.theme.Brand.Name, r.layout.Margin, baseline)

	exported := r.printer.Sprintf("exported %s", r.now().Format("2 Jan 2006"))
	dc.SetHexColor(r.theme.Brand.Muted)
	right := r.layout.Margin + r.layout.ContentWidth()
	dc.DrawString(exported, right-fs.small.Advance(exported), baseline)
}

// drawLines draws lines top-down starting at top, one per lineHeight,
// vertically centered in their line box.
func drawLines(dc *gg.Context, face text.Face, lines []string, x, top, lineHeight float64) {
	m := face.Metrics()
	offset := (lineHeight-(m.Ascent+m.Descent))/2 + m.Ascent
	dc.SetFont(face)
	for i, line := range lines {
		dc.DrawString(line, x, top+float64(i)*lineHeight+offset)
	}
}

// DrawPlaceholder renders the "no data" page used when a unit fails to load.
func (r *Renderer) DrawPlaceholder(mode, label string) (PageImage, error) {
	fs, err := r.faces()
	if err != nil {
		return PageImage{}, err
	}
	dc := r.newCanvas()
	r.drawHeader(dc, fs, label, "")

	cx := float64(r.layout.PageWidth) / 2
	cy := r.layout.ContentTop() + r.layout.AvailableHeight()/2
	dc.SetHexColor(r.theme.Brand.Neutral)
	dc.DrawRoundedRectangle(r.layout.Margin, cy-160, r.layout.ContentWidth(), 320, r.layout.CardRadius)
	_ = dc.Fill()

	msg := "no data"
	dc.SetHexColor(r.theme.Brand.Muted)
	dc.SetFont(fs.header)
	dc.DrawString(msg, cx-fs.header.Advance(msg)/2, cy+fs.header.Metrics().Ascent/2)

	r.drawFooter(dc, fs)
	page, err := r.finish(dc, mode, label)
	page.Placeholder = true
	return page, err
}
