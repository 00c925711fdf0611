package render

import (
	"image"
	"math"
	"strings"

	"github.com/gogpu/gg"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/textlayout"
)

// shadowMargin is the transparent border around a favorites card raster.
const shadowMargin = 12

// FavoritesPerPage returns the capacity of one favorites page.
func (r *Renderer) FavoritesPerPage() (int, error) {
	engine, err := r.CaptionEngine()
	if err != nil {
		return 0, err
	}
	return r.layout.FavoritesPerPage(engine.LineHeight(), r.theme.Caption.FavoriteMaxLines), nil
}

// DrawFavoritesPage renders a grid of tilted polaroids. pageIndex is 0-based.
func (r *Renderer) DrawFavoritesPage(items []entries.FavoriteData, pageIndex, pageCount int) (PageImage, error) {
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
	subtitle := ""
	if pageCount > 1 {
		subtitle = r.printer.Sprintf("page %d/%d", pageIndex+1, pageCount)
	}
	r.drawHeader(dc, fs, "Favorites", subtitle)

	lh := engine.LineHeight()
	maxLines := r.theme.Caption.FavoriteMaxLines
	cardW := l.FavoriteCardWidth()
	cardH := l.FavoriteCardHeight(lh, maxLines)
	tilt := cardW * math.Sin(l.FavoriteRotation*math.Pi/180)
	cols := max(1, l.FavoritesColumns)

	for i, item := range items {
		row, col := i/cols, i%cols
		cx := l.Margin + float64(col)*(cardW+2*l.CardGap) + cardW/2
		cy := l.ContentTop() + float64(row)*(cardH+tilt+2*l.CardGap) + (cardH+tilt)/2

		rotation := l.FavoriteRotation
		if i%2 == 0 {
			rotation = -rotation
		}
		card := r.favoriteCard(fs, engine, item, cardW, cardH, maxLines)
		drawRaster(dc, transformRaster(card, 1, rotation), cx, cy, 1)
	}

	r.drawFooter(dc, fs)
	label := "favorites"
	if pageCount > 1 {
		label = r.printer.Sprintf("favorites (%d/%d)", pageIndex+1, pageCount)
	}
	return r.finish(dc, constants.ModeFavorites, label)
}

// favoriteCard draws one upright polaroid on its own transparent canvas.
func (r *Renderer) favoriteCard(fs *faceSet, engine *textlayout.Engine, item entries.FavoriteData, w, h float64, maxLines int) image.Image {
	l := r.layout
	sc := gg.NewContext(int(math.Ceil(w))+2*shadowMargin, int(math.Ceil(h))+2*shadowMargin)
	defer sc.Close()

	x, y := float64(shadowMargin), float64(shadowMargin)
	drawShadow(sc, x, y, w, h, 4)
	sc.SetHexColor(r.theme.Brand.Card)
	sc.DrawRoundedRectangle(x, y, w, h, 4)
	_ = sc.Fill()

	px, py := x+l.CardPadding, y+l.CardPadding
	pw := w - 2*l.CardPadding
	if item.Photo != nil {
		drawCover(sc, item.Photo.Decoded(), px, py, pw, l.FavoritePhotoHeight)
	} else {
		r.drawPlusTile(sc, px, py, pw, l.FavoritePhotoHeight)
	}
	drawHeart(sc, px+pw-30, py+30, 36, r.theme.Brand.Primary)

	textTop := py + l.FavoritePhotoHeight + l.CaptionGap
	lh := engine.LineHeight()
	sc.SetHexColor(r.theme.Brand.Muted)
	drawLines(sc, fs.bold, []string{item.Date.Format("2 January 2006")}, px, textTop, lh)

	lines := engine.Truncate(engine.Wrap(strings.TrimSpace(item.Note), pw), maxLines, pw)
	sc.SetHexColor(r.theme.Brand.Ink)
	drawLines(sc, fs.body, lines, px, textTop+lh, lh)
	return sc.Image()
}
