package render

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/gogpu/gg"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/fonts"
)

// DrawDay renders the polaroid page of one day.
func (r *Renderer) DrawDay(day *entries.DayData) (PageImage, error) {
	fs, err := r.faces()
	if err != nil {
		return PageImage{}, err
	}
	engine, err := r.CaptionEngine()
	if err != nil {
		return PageImage{}, err
	}

	l := r.layout
	dc := r.newCanvas()
	r.drawHeader(dc, fs, day.Date.Format("Monday, 2 January 2006"), "")

	size := l.PolaroidPhotoSize()
	lh := engine.LineHeight()
	maxLines := r.theme.Caption.DayMaxLines
	cardW := l.PolaroidWidth
	cardH := 3*l.PolaroidPadding + size + float64(maxLines)*lh
	x0 := (float64(l.PageWidth) - cardW) / 2
	y0 := l.ContentTop() + 8

	drawShadow(dc, x0, y0, cardW, cardH, 6)
	dc.SetHexColor(r.theme.Brand.Card)
	dc.DrawRoundedRectangle(x0, y0, cardW, cardH, 6)
	_ = dc.Fill()

	px, py := x0+l.PolaroidPadding, y0+l.PolaroidPadding
	if day.Photo != nil {
		drawCover(dc, day.Photo.Decoded(), px, py, size, size)
	} else {
		r.drawPlusTile(dc, px, py, size, size)
	}

	r.drawWatermark(dc, fs, px, py, size)

	for _, s := range day.Stickers {
		if err := r.drawSticker(dc, s, px, py, size); err != nil {
			return PageImage{}, err
		}
	}

	if day.Entry != nil && day.Entry.Liked {
		r.drawLikedStamp(dc, px+size-l.StampRadius-20, py+l.StampRadius+20, l.StampRadius)
	}

	if day.Entry != nil {
		lines := engine.Truncate(engine.Wrap(strings.TrimSpace(day.Entry.Note), size), maxLines, size)
		dc.SetHexColor(r.theme.Brand.Ink)
		drawLines(dc, fs.body, lines, px, py+size+l.PolaroidPadding, lh)
	}

	r.drawFooter(dc, fs)
	return r.finish(dc, constants.ModeDay, day.Date.Format(constants.DateLayout))
}

// drawPlusTile fills a photo slot that has no photo.
func (r *Renderer) drawPlusTile(dc *gg.Context, x, y, w, h float64) {
	dc.SetHexColor(r.theme.Brand.Neutral)
	dc.DrawRectangle(x, y, w, h)
	_ = dc.Fill()

	arm := math.Min(w, h) / 6
	cx, cy := x+w/2, y+h/2
	dc.SetHexColor(r.theme.Brand.Muted)
	dc.SetLineWidth(math.Max(2, arm/8))
	dc.DrawLine(cx-arm, cy, cx+arm, cy)
	dc.DrawLine(cx, cy-arm, cx, cy+arm)
	_ = dc.Stroke()
}

// drawWatermark writes the brand name translucently in the photo's lower right corner.
func (r *Renderer) drawWatermark(dc *gg.Context, fs *faceSet, px, py, size float64) {
	name := r.theme.Brand.Name
	setHexAlpha(dc, r.theme.Brand.Card, 0.6)
	dc.SetFont(fs.bold)
	dc.DrawString(name, px+size-fs.bold.Advance(name)-20, py+size-20)
}

// drawLikedStamp draws a round stamp with a drop shadow and a heart clipped to the circle.
func (r *Renderer) drawLikedStamp(dc *gg.Context, cx, cy, radius float64) {
	dc.SetRGBA(0, 0, 0, 0.22)
	dc.DrawCircle(cx+3, cy+6, radius)
	_ = dc.Fill()

	dc.SetHexColor(r.theme.Brand.Card)
	dc.DrawCircle(cx, cy, radius)
	_ = dc.Fill()

	dc.Push()
	dc.DrawCircle(cx, cy, radius-6)
	dc.Clip()
	setHexAlpha(dc, r.theme.Brand.Primary, 0.12)
	dc.DrawCircle(cx, cy, radius-6)
	_ = dc.Fill()
	drawHeart(dc, cx, cy+radius*0.1, radius*1.15, r.theme.Brand.Primary)
	dc.Pop()

	dc.SetHexColor(r.theme.Brand.Primary)
	dc.SetLineWidth(3)
	dc.DrawCircle(cx, cy, radius-6)
	_ = dc.Stroke()
}

// drawSticker places a sticker at its normalized position inside the photo box.
func (r *Renderer) drawSticker(dc *gg.Context, s entries.StickerImage, px, py, size float64) error {
	target := r.layout.StickerBaseSize * s.Sticker.Scale
	cx := px + s.Sticker.X*size
	cy := py + s.Sticker.Y*size

	var raster image.Image
	switch {
	case s.Sticker.Kind == database.StickerEmoji:
		img, err := r.emojiRaster(s.Sticker.Emoji, target)
		if err != nil {
			return err
		}
		raster = transformRaster(img, 1, s.Sticker.Rotation)
	case s.Image != nil:
		src := s.Image.Decoded()
		b := src.Bounds()
		scale := target / math.Max(float64(b.Dx()), float64(b.Dy()))
		raster = transformRaster(src, scale, s.Sticker.Rotation)
	default:
		// Asset failed to load; the sticker is left out.
		return nil
	}
	drawRaster(dc, raster, cx, cy, 1)
	return nil
}

// emojiRaster draws an emoji on a transparent square canvas. Faces without
// the glyph get a badge instead, so a sticker is never silently blank.
func (r *Renderer) emojiRaster(emoji string, size float64) (image.Image, error) {
	side := max(int(math.Ceil(size)), 8)
	face, err := r.fonts.Face(fonts.Regular, size*0.8)
	if err != nil {
		return nil, fmt.Errorf("load emoji face: %w", err)
	}

	sc := gg.NewContext(side, side)
	defer sc.Close()

	c := float64(side) / 2
	if hasGlyphs(face, emoji) {
		sc.SetHexColor(r.theme.Brand.Ink)
		sc.SetFont(face)
		m := face.Metrics()
		sc.DrawString(emoji, c-face.Advance(emoji)/2, c+(m.Ascent-m.Descent)/2)
	} else {
		sc.SetHexColor(r.theme.Brand.Primary)
		sc.DrawCircle(c, c, c-2)
		_ = sc.Fill()
		drawHeart(sc, c, c+c*0.08, c, r.theme.Brand.Card)
	}
	return sc.Image(), nil
}

func hasGlyphs(face interface{ HasGlyph(rune) bool }, s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		// Variation selectors and joiners have no glyph of their own.
		if ch == 0xFE0F || ch == 0x200D {
			continue
		}
		if !face.HasGlyph(ch) {
			return false
		}
	}
	return true
}
