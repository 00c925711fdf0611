package render

import (
	"fmt"
	"math"

	"github.com/kozaktomas/photo-diary/internal/paginate"
)

// ValidationWarning describes a layout issue found on a week page.
type ValidationWarning struct {
	PageNumber int    `json:"page_number"`
	SlotIndex  int    `json:"slot_index"`
	Message    string `json:"message"`
	Severity   string `json:"severity"` // "error" or "warning"
}

// ValidatePage checks a paginated week page: slices stay within the
// available height, card rectangles do not overlap and continuation flags
// match the caption ranges.
func ValidatePage(m paginate.Metrics, slices []paginate.Slice, pageNumber int) []ValidationWarning {
	var warnings []ValidationWarning
	const eps = 0.01

	add := func(slot int, severity, format string, args ...any) {
		warnings = append(warnings, ValidationWarning{
			PageNumber: pageNumber,
			SlotIndex:  slot,
			Message:    fmt.Sprintf(format, args...),
			Severity:   severity,
		})
	}

	if len(slices) == 0 {
		add(-1, "error", "page has no slices")
		return warnings
	}

	y := 0.0
	prevBottom := math.Inf(-1)
	for i, s := range slices {
		if s.Card == nil {
			add(i, "error", "slice has no card")
			continue
		}
		lines := len(s.Card.Lines)
		if s.CaptionStart < 0 || s.CaptionEnd > lines || s.CaptionStart > s.CaptionEnd {
			add(i, "error", "caption range [%d,%d) outside [0,%d)", s.CaptionStart, s.CaptionEnd, lines)
		}
		if s.IsFirstSlice != (s.CaptionStart == 0) {
			add(i, "error", "first-slice flag %v does not match caption start %d", s.IsFirstSlice, s.CaptionStart)
		}
		if s.IsLastSlice != (s.CaptionEnd == lines) {
			add(i, "error", "last-slice flag %v does not match caption end %d of %d", s.IsLastSlice, s.CaptionEnd, lines)
		}
		if !s.IsFirstSlice && i != 0 {
			add(i, "warning", "continuation slice is not at the top of the page")
		}
		if !s.IsLastSlice && i != len(slices)-1 {
			add(i, "warning", "split slice is not at the bottom of the page")
		}

		expected := m.SliceHeight(s.IsFirstSlice, s.IsLastSlice, s.CaptionEnd-s.CaptionStart)
		if math.Abs(s.Height-expected) > eps {
			add(i, "warning", "slice height %.1f does not match measured %.1f", s.Height, expected)
		}

		if i > 0 {
			y += m.Gap
		}
		if y < prevBottom-eps {
			add(i, "error", "card top %.1f overlaps previous card bottom %.1f", y, prevBottom)
		}
		y += s.Height
		prevBottom = y
	}

	if y > m.AvailableHeight+eps {
		// A single slice forced onto an empty page may exceed the page.
		severity := "error"
		if len(slices) == 1 {
			severity = "warning"
		}
		add(len(slices)-1, severity, "page content %.1f exceeds available height %.1f", y, m.AvailableHeight)
	}
	return warnings
}
