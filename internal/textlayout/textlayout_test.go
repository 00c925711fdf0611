package textlayout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kozaktomas/photo-diary/internal/constants"
)

// fixedMeasurer gives every rune the same width; wide runes count double.
type fixedMeasurer struct {
	width float64
	wide  map[rune]bool
}

func (f fixedMeasurer) Advance(s string) float64 {
	total := 0.0
	for _, r := range s {
		if f.wide[r] {
			total += f.width * 2
		} else {
			total += f.width
		}
	}
	return total
}

func newEngine() *Engine {
	return New(fixedMeasurer{width: 10, wide: map[rune]bool{'W': true}}, 22, 1.45)
}

func TestWrap_ShortTextIsSingleLine(t *testing.T) {
	e := newEngine()
	// Inputs are already NFC; decomposed text comes back composed.
	texts := []string{"a", "hello", "short note", "ünïcödé"}
	for _, text := range texts {
		got := e.Wrap(text, 200)
		if len(got) != 1 || got[0] != text {
			t.Errorf("expected [%q], got %q", text, got)
		}
	}
}

func TestWrap_Empty(t *testing.T) {
	got := newEngine().Wrap("", 100)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestWrap_GreedyPerRune(t *testing.T) {
	e := newEngine()
	got := e.Wrap("abcdefghij", 30)
	want := []string{"abc", "def", "ghi", "j"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWrap_HardBreaks(t *testing.T) {
	e := newEngine()
	got := e.Wrap("ab\n\ncd\r\nef", 100)
	want := []string{"ab", "", "cd", "ef"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWrap_BlankLines(t *testing.T) {
	e := newEngine()
	tests := []struct {
		text string
		want []string
	}{
		{"hello\n", []string{"hello"}},
		{"\n\nhello", []string{"hello"}},
		{"hello\n\n\n\nworld", []string{"hello", "", "world"}},
		{"\n\n", []string{}},
	}
	for _, tc := range tests {
		got := e.Wrap(tc.text, 100)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Errorf("%q: expected %q, got %q", tc.text, tc.want, got)
		}
	}
}

func TestWrap_OversizedRuneAlone(t *testing.T) {
	e := newEngine()
	got := e.Wrap("aWb", 15)
	want := []string{"a", "W", "b"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWrap_Lossless(t *testing.T) {
	e := newEngine()
	text := "The quick brown fox jumps over the lazy dog, twice.\nThen sleeps."
	for _, width := range []float64{10, 35, 70, 1000} {
		lines := e.Wrap(text, width)
		if got := strings.Join(lines, ""); got != strings.ReplaceAll(text, "\n", "") {
			t.Errorf("width %.0f: expected lossless wrap, got %q", width, got)
		}
		for _, line := range lines {
			if utf8.RuneCountInString(line) > 1 && e.m.Advance(line) > width {
				t.Errorf("width %.0f: line %q overflows", width, line)
			}
		}
	}
}

func TestWrap_NormalizesNFC(t *testing.T) {
	e := newEngine()
	// "e" + combining acute accent composes into one rune.
	got := e.Wrap("cafe\u0301", 40)
	if len(got) != 1 || got[0] != "caf\u00e9" {
		t.Errorf("expected composed single line, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	e := newEngine()
	lines := []string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}

	t.Run("under limit unchanged", func(t *testing.T) {
		got := e.Truncate(lines[:2], 4, 40)
		if len(got) != 2 || got[1] != "bbbb" {
			t.Errorf("expected lines unchanged, got %q", got)
		}
	})

	t.Run("over limit gets ellipsis", func(t *testing.T) {
		got := e.Truncate(lines, 2, 40)
		if len(got) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(got))
		}
		if got[1] != "bbb"+constants.Ellipsis {
			t.Errorf("expected 'bbb…', got %q", got[1])
		}
		if lines[1] != "bbbb" {
			t.Error("input slice was modified")
		}
	})

	t.Run("cut on paragraph gap", func(t *testing.T) {
		got := e.Truncate(e.Wrap("hello\n\n\n\nworld", 100), 2, 100)
		if len(got) != 1 || got[0] != "hello"+constants.Ellipsis {
			t.Errorf("expected [\"hello…\"], got %q", got)
		}
	})

	t.Run("degenerate width", func(t *testing.T) {
		got := e.Truncate(lines, 1, 5)
		if len(got) != 1 || got[0] != constants.Ellipsis {
			t.Errorf("expected lone ellipsis, got %q", got)
		}
	})

	t.Run("non-positive max", func(t *testing.T) {
		for _, maxLines := range []int{0, -1} {
			got := e.Truncate(lines, maxLines, 40)
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty slice for %d, got %q", maxLines, got)
			}
		}
	})
}

func TestTruncate_Bounds(t *testing.T) {
	e := newEngine()
	lines := e.Wrap(strings.Repeat("lorem ipsum dolor ", 20), 60)
	for maxLines := 1; maxLines <= 6; maxLines++ {
		got := e.Truncate(lines, maxLines, 60)
		if len(got) > maxLines {
			t.Errorf("expected at most %d lines, got %d", maxLines, len(got))
		}
		last := got[len(got)-1]
		if e.m.Advance(last) > 60 {
			t.Errorf("last line %q exceeds width", last)
		}
	}
}

func TestLineHeight(t *testing.T) {
	e := New(fixedMeasurer{width: 1}, 22, 1.45)
	if e.LineHeight() != 32 {
		t.Errorf("expected 32, got %v", e.LineHeight())
	}
	if e.Height(3) != 96 {
		t.Errorf("expected 96, got %v", e.Height(3))
	}
	if e.Height(0) != 0 {
		t.Errorf("expected 0, got %v", e.Height(0))
	}
}
