// Package fonts loads the font faces used by the page renderer.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Style selects a font variant.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	default:
		return "regular"
	}
}

var styles = []Style{Regular, Bold, Italic}

// ErrNotReady is returned by Face before Ready has succeeded.
var ErrNotReady = errors.New("fonts not loaded")

type faceKey struct {
	style Style
	size  float64
}

// Service loads the Go font family, or regular.ttf, bold.ttf and italic.ttf
// from an override directory, and hands out sized faces.
type Service struct {
	dir string

	mu      sync.RWMutex
	sources map[Style]*text.FontSource
	faces   map[faceKey]text.Face
}

// NewService creates a font service. dir may be empty.
func NewService(dir string) *Service {
	return &Service{dir: dir}
}

// Ready loads all font sources. It is safe to call repeatedly; after the
// first success it returns nil immediately.
func (s *Service) Ready(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sources != nil {
		return nil
	}

	sources := make(map[Style]*text.FontSource, len(styles))
	for _, style := range styles {
		if err := ctx.Err(); err != nil {
			closeSources(sources)
			return err
		}
		data, err := s.fontData(style)
		if err != nil {
			closeSources(sources)
			return err
		}
		src, err := text.NewFontSource(data)
		if err != nil {
			closeSources(sources)
			return fmt.Errorf("parse %s font: %w", style, err)
		}
		sources[style] = src
	}

	s.sources = sources
	s.faces = make(map[faceKey]text.Face)
	return nil
}

// fontData returns the override file for style when present, else the
// embedded Go font.
func (s *Service) fontData(style Style) ([]byte, error) {
	if s.dir != "" {
		path := filepath.Join(s.dir, style.String()+".ttf")
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
	}
	switch style {
	case Bold:
		return gobold.TTF, nil
	case Italic:
		return goitalic.TTF, nil
	default:
		return goregular.TTF, nil
	}
}

// Face returns a face for style at size pixels.
func (s *Service) Face(style Style, size float64) (text.Face, error) {
	key := faceKey{style, size}

	s.mu.RLock()
	if s.sources == nil {
		s.mu.RUnlock()
		return nil, ErrNotReady
	}
	face, ok := s.faces[key]
	s.mu.RUnlock()
	if ok {
		return face, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if face, ok := s.faces[key]; ok {
		return face, nil
	}
	face = s.sources[style].Face(size)
	s.faces[key] = face
	return face, nil
}

// Close releases the loaded font sources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	closeSources(s.sources)
	s.sources = nil
	s.faces = nil
	return nil
}

func closeSources(sources map[Style]*text.FontSource) {
	for _, src := range sources {
		_ = src.Close()
	}
}
