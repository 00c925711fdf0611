// Package paginate packs measured week cards onto fixed-height pages.
//
// Cards are placed greedily. A card that fits neither the remaining space
// nor a fresh page is split into caption slices; the slices of one card
// cover its lines exactly once, in order, so no line is ever dropped.
package paginate

import (
	"math"
	"time"

	"github.com/kozaktomas/photo-diary/internal/database"
)

// Metrics are the fixed vertical measures of a week page.
type Metrics struct {
	AvailableHeight  float64 // page height minus margins, header and footer
	Gap              float64 // between stacked slices
	LineHeight       float64
	FirstBase        float64 // photo and date block plus padding
	ContinuationBase float64 // padding plus the "(continued)" header
	HintHeight       float64 // "(continued…)" footer of non-last slices
}

// SliceHeight returns the height of a slice carrying lines caption lines.
func (m Metrics) SliceHeight(isFirst, isLast bool, lines int) float64 {
	h := m.ContinuationBase
	if isFirst {
		h = m.FirstBase
	}
	h += float64(lines) * m.LineHeight
	if !isLast {
		h += m.HintHeight
	}
	return h
}

// Card is one measured day of a week.
type Card struct {
	Date   time.Time
	Entry  *database.Entry
	Lines  []string
	Height float64
}

// NewCard measures a card as a single unsplit slice.
func NewCard(date time.Time, entry *database.Entry, lines []string, m Metrics) Card {
	return Card{
		Date:   date,
		Entry:  entry,
		Lines:  lines,
		Height: m.SliceHeight(true, true, len(lines)),
	}
}

// Slice is the part of a card drawn on one page.
type Slice struct {
	Card         *Card
	CaptionStart int
	CaptionEnd   int
	IsFirstSlice bool
	IsLastSlice  bool
	Height       float64
}

// Lines returns the caption lines covered by the slice.
func (s Slice) Lines() []string {
	return s.Card.Lines[s.CaptionStart:s.CaptionEnd]
}

type pageBuilder struct {
	m       Metrics
	pages   [][]Slice
	current []Slice
	used    float64
}

func (b *pageBuilder) remaining() float64 {
	if len(b.current) == 0 {
		return b.m.AvailableHeight
	}
	return b.m.AvailableHeight - b.used - b.m.Gap
}

func (b *pageBuilder) place(s Slice) {
	if len(b.current) > 0 {
		b.used += b.m.Gap
	}
	b.used += s.Height
	b.current = append(b.current, s)
}

func (b *pageBuilder) flush() {
	if len(b.current) == 0 {
		return
	}
	b.pages = append(b.pages, b.current)
	b.current = nil
	b.used = 0
}

// Paginate distributes cards over pages. The returned pages are never empty.
func Paginate(cards []Card, m Metrics) [][]Slice {
	b := &pageBuilder{m: m, pages: [][]Slice{}}

	for i := range cards {
		card := &cards[i]
		total := len(card.Lines)
		start := 0

		for {
			first := start == 0
			rest := total - start

			whole := m.SliceHeight(first, true, rest)
			if whole <= b.remaining() {
				b.place(Slice{Card: card, CaptionStart: start, CaptionEnd: total,
					IsFirstSlice: first, IsLastSlice: true, Height: whole})
				break
			}
			// Prefer moving an unsplit card to a fresh page over slicing it.
			if first && len(b.current) > 0 && whole <= m.AvailableHeight {
				b.flush()
				continue
			}

			fitting := rest
			if rest > 0 && m.LineHeight > 0 {
				base := m.ContinuationBase
				if first {
					base = m.FirstBase
				}
				fitting = int(math.Floor((b.remaining() - base - m.HintHeight) / m.LineHeight))
				fitting = min(fitting, rest)
			}
			if fitting <= 0 || rest == 0 {
				if len(b.current) > 0 {
					b.flush()
					continue
				}
				// Alone on an empty page and still too tall: force progress.
				fitting = min(1, rest)
			}

			end := start + fitting
			last := end == total
			b.place(Slice{Card: card, CaptionStart: start, CaptionEnd: end,
				IsFirstSlice: first, IsLastSlice: last, Height: m.SliceHeight(first, last, fitting)})
			if last {
				break
			}
			b.flush()
			start = end
		}
	}

	b.flush()
	return b.pages
}

// Range is a half-open index range [Start, End).
type Range struct {
	Start int
	End   int
}

// GridPages splits n grid items into pages of perPage items.
func GridPages(n, perPage int) []Range {
	if perPage <= 0 {
		perPage = 1
	}
	pages := []Range{}
	for start := 0; start < n; start += perPage {
		pages = append(pages, Range{Start: start, End: min(start+perPage, n)})
	}
	return pages
}

// GridCapacity returns how many cards of cardHeight fit into available
// height across columns, never less than one row.
func GridCapacity(available, cardHeight, gap float64, columns int) int {
	columns = max(1, columns)
	if cardHeight <= 0 {
		return columns
	}
	rows := int(math.Floor((available + gap) / (cardHeight + gap)))
	return columns * max(1, rows)
}
