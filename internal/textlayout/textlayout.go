// Package textlayout wraps and truncates free text against a font's advance
// widths. Wrapping is greedy per rune, so it works for text without spaces.
package textlayout

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/photo-diary/internal/constants"
)

// Measurer reports the advance width of a string in pixels.
type Measurer interface {
	Advance(s string) float64
}

// Engine measures text with one face at one size.
type Engine struct {
	m          Measurer
	fontSize   float64
	multiplier float64
}

// New creates an engine. multiplier is the line-height factor applied to fontSize.
func New(m Measurer, fontSize, multiplier float64) *Engine {
	return &Engine{m: m, fontSize: fontSize, multiplier: multiplier}
}

// LineHeight returns the rounded line advance in pixels.
func (e *Engine) LineHeight() float64 {
	return math.Round(e.fontSize * e.multiplier)
}

// Height returns the height of n lines.
func (e *Engine) Height(n int) float64 {
	return float64(n) * e.LineHeight()
}

// Wrap breaks text into lines no wider than maxWidth. A new line starts
// when appending the next rune would overflow; "\n" forces a break. A single
// rune wider than maxWidth gets a line of its own. Runs of blank lines collapse
// into one and leading or trailing blank lines are dropped. Text is NFC
// normalized first, so decomposed input comes back composed.
func (e *Engine) Wrap(text string, maxWidth float64) []string {
	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))
	lines := []string{}
	if text == "" {
		return lines
	}

	blank := false
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		var current strings.Builder
		for _, r := range paragraph {
			candidate := current.String() + string(r)
			if current.Len() > 0 && e.m.Advance(candidate) > maxWidth {
				lines = append(lines, current.String())
				current.Reset()
			}
			current.WriteRune(r)
		}
		lines = append(lines, current.String())
	}
	return lines
}

// Truncate limits lines to maxLines. When lines are dropped, the last kept
// line loses trailing runes until it fits maxWidth with an ellipsis.
func (e *Engine) Truncate(lines []string, maxLines int, maxWidth float64) []string {
	if maxLines <= 0 {
		return []string{}
	}
	if len(lines) <= maxLines {
		return lines
	}

	out := make([]string, maxLines)
	copy(out, lines[:maxLines])
	// A cut on a paragraph gap puts the ellipsis on the text above it.
	for len(out) > 1 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	maxLines = len(out)

	last := []rune(strings.TrimRight(out[maxLines-1], " "))
	for len(last) > 0 && e.m.Advance(string(last)+constants.Ellipsis) > maxWidth {
		last = last[:len(last)-1]
	}
	out[maxLines-1] = string(last) + constants.Ellipsis
	return out
}
