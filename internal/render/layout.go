package render

import (
	"math"

	"github.com/kozaktomas/photo-diary/internal/paginate"
)

// LayoutConfig holds the fixed page geometry in pixels.
type LayoutConfig struct {
	PageWidth    int     // 1240 (A4 portrait at 150 dpi)
	PageHeight   int     // 1754
	Margin       float64 // outer margin on all sides
	HeaderHeight float64 // title zone below the top margin
	FooterHeight float64 // brand and export date zone above the bottom margin

	// Week cards
	CardGap               float64 // between stacked slices
	CardPadding           float64 // inside a card
	CardRadius            float64
	DayColumnWidth        float64 // day name and number column of first slices
	WeekPhotoHeight       float64
	CaptionGap            float64 // between photo block and caption
	ContinuedHeaderHeight float64 // italic "(continued)" line of continuation slices
	HintHeight            float64 // "(continued…)" line of non-last slices

	// Day polaroid
	PolaroidWidth   float64
	PolaroidPadding float64
	StampRadius     float64
	StickerBaseSize float64 // rendered size of a sticker at scale 1

	// Month grid
	MonthGridGap float64

	// Favorites grid
	FavoritesColumns    int
	FavoritePhotoHeight float64
	FavoriteRotation    float64 // degrees; alternates sign per card
}

// DefaultLayoutConfig returns the layout used for all exports.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		PageWidth:    1240,
		PageHeight:   1754,
		Margin:       64,
		HeaderHeight: 120,
		FooterHeight: 56,

		CardGap:               24,
		CardPadding:           24,
		CardRadius:            18,
		DayColumnWidth:        120,
		WeekPhotoHeight:       320,
		CaptionGap:            16,
		ContinuedHeaderHeight: 40,
		HintHeight:            36,

		PolaroidWidth:   920,
		PolaroidPadding: 40,
		StampRadius:     72,
		StickerBaseSize: 140,

		MonthGridGap: 8,

		FavoritesColumns:    2,
		FavoritePhotoHeight: 420,
		FavoriteRotation:    2.5,
	}
}

// ContentWidth returns the usable horizontal space.
func (c LayoutConfig) ContentWidth() float64 {
	return float64(c.PageWidth) - 2*c.Margin
}

// ContentTop returns the Y of the first pixel below the header zone.
func (c LayoutConfig) ContentTop() float64 {
	return c.Margin + c.HeaderHeight
}

// AvailableHeight returns the page height minus margins, header and footer.
func (c LayoutConfig) AvailableHeight() float64 {
	return float64(c.PageHeight) - 2*c.Margin - c.HeaderHeight - c.FooterHeight
}

// CaptionWidth returns the width of a week card caption.
func (c LayoutConfig) CaptionWidth() float64 {
	return c.ContentWidth() - 2*c.CardPadding
}

// PolaroidPhotoSize returns the side of the square polaroid photo.
func (c LayoutConfig) PolaroidPhotoSize() float64 {
	return c.PolaroidWidth - 2*c.PolaroidPadding
}

// WeekMetrics returns the pagination measures of a week page.
func (c LayoutConfig) WeekMetrics(lineHeight float64) paginate.Metrics {
	return paginate.Metrics{
		AvailableHeight:  c.AvailableHeight(),
		Gap:              c.CardGap,
		LineHeight:       lineHeight,
		FirstBase:        2*c.CardPadding + c.WeekPhotoHeight + c.CaptionGap,
		ContinuationBase: 2*c.CardPadding + c.ContinuedHeaderHeight,
		HintHeight:       c.HintHeight,
	}
}

// FavoriteCardWidth returns the width of one favorites polaroid.
func (c LayoutConfig) FavoriteCardWidth() float64 {
	cols := float64(max(1, c.FavoritesColumns))
	return (c.ContentWidth() - (cols-1)*c.CardGap*2) / cols
}

// FavoriteCardHeight returns the height of one favorites polaroid: photo,
// a date line and the caption lines.
func (c LayoutConfig) FavoriteCardHeight(lineHeight float64, captionLines int) float64 {
	return 2*c.CardPadding + c.FavoritePhotoHeight + c.CaptionGap + float64(1+captionLines)*lineHeight
}

// FavoritesPerPage returns how many favorites cards fit on one page. The
// rotation margin keeps tilted cards from touching.
func (c LayoutConfig) FavoritesPerPage(lineHeight float64, captionLines int) int {
	h := c.FavoriteCardHeight(lineHeight, captionLines)
	tilt := c.FavoriteCardWidth() * math.Sin(c.FavoriteRotation*math.Pi/180)
	return paginate.GridCapacity(c.AvailableHeight(), h+tilt, c.CardGap*2, c.FavoritesColumns)
}
