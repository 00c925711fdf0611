package fonts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestFace_BeforeReady(t *testing.T) {
	s := NewService("")
	if _, err := s.Face(Regular, 12); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestReady_EmbeddedFonts(t *testing.T) {
	s := NewService("")
	defer s.Close()

	if err := s.Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := s.Ready(context.Background()); err != nil {
		t.Fatalf("second ready: %v", err)
	}

	for _, style := range []Style{Regular, Bold, Italic} {
		face, err := s.Face(style, 20)
		if err != nil {
			t.Fatalf("face %s: %v", style, err)
		}
		if face.Advance("hello") <= 0 {
			t.Errorf("expected positive advance for %s", style)
		}
	}

	a, _ := s.Face(Regular, 20)
	b, _ := s.Face(Regular, 20)
	if a != b {
		t.Error("expected cached face for same style and size")
	}
}

func TestReady_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "regular.ttf"), gomono.TTF, 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewService(dir)
	defer s.Close()

	if err := s.Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
	regular, _ := s.Face(Regular, 20)
	bold, _ := s.Face(Bold, 20)
	// Monospace: every glyph has the same advance.
	if regular.Advance("iiii") != regular.Advance("MMMM") {
		t.Error("expected override font to be monospace")
	}
	if bold.Advance("iiii") == bold.Advance("MMMM") {
		t.Error("expected bold to fall back to the proportional Go font")
	}
}

func TestReady_InvalidFont(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bold.ttf"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewService(dir)
	if err := s.Ready(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := s.Face(Regular, 12); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady after failed load, got %v", err)
	}
}

func TestReady_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewService("")
	if err := s.Ready(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStyleString(t *testing.T) {
	tests := map[Style]string{Regular: "regular", Bold: "bold", Italic: "italic"}
	for style, want := range tests {
		if style.String() != want {
			t.Errorf("expected %s, got %s", want, style.String())
		}
	}
}
