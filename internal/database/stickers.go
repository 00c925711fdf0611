package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// rawSticker is the union of both stored sticker variants.
//
// Legacy records carry an emoji or a bare image src with flat coordinates:
//
//	{"emoji":"🌸","x":0.3,"y":0.4,"scale":1.2,"rotation":15}
//	{"src":"static/stickers/star.png","x":0.3,"y":0.4}
//
// Typed records name their variant and nest the position:
//
//	{"type":"image","src":"stickers/a.png","position":{"x":0.1,"y":0.2},"scale":1,"rotate":-10}
type rawSticker struct {
	Type     string   `json:"type"`
	Emoji    string   `json:"emoji"`
	Src      string   `json:"src"`
	Ref      string   `json:"ref"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Position *struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	} `json:"position"`
	Scale    *float64 `json:"scale"`
	Rotation *float64 `json:"rotation"`
	Rotate   *float64 `json:"rotate"`
}

var errNoStickerAsset = errors.New("sticker has neither image nor emoji")

// ParseStickers decodes a stored sticker list. Records that cannot be
// salvaged are dropped and counted, the rest are coerced into range.
// A nil, empty or "null" document is an empty list.
func ParseStickers(data []byte) ([]Sticker, int, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, 0, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
		return nil, 0, fmt.Errorf("decode sticker list: %w", err)
	}

	stickers := make([]Sticker, 0, len(records))
	dropped := 0
	for _, rec := range records {
		var raw rawSticker
		if err := json.Unmarshal(rec, &raw); err != nil {
			dropped++
			continue
		}
		s, err := raw.normalize()
		if err != nil {
			dropped++
			continue
		}
		stickers = append(stickers, s)
	}
	return stickers, dropped, nil
}

// MarshalStickers encodes stickers in the typed variant.
func MarshalStickers(stickers []Sticker) ([]byte, error) {
	out := make([]map[string]any, 0, len(stickers))
	for _, s := range stickers {
		rec := map[string]any{
			"type":     string(s.Kind),
			"position": map[string]float64{"x": s.X, "y": s.Y},
			"scale":    s.Scale,
			"rotate":   s.Rotation,
		}
		if s.Kind == StickerEmoji {
			rec["emoji"] = s.Emoji
		} else {
			rec["src"] = s.Ref
		}
		out = append(out, rec)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode sticker list: %w", err)
	}
	return data, nil
}

func (r rawSticker) normalize() (Sticker, error) {
	var s Sticker

	switch strings.ToLower(r.Type) {
	case "emoji":
		s.Kind = StickerEmoji
		s.Emoji = strings.TrimSpace(r.Emoji)
	case "image":
		s.Kind = StickerImage
		s.Ref = firstNonEmpty(r.Src, r.Ref)
	case "":
		// Legacy record: infer the variant from whichever field is present.
		if e := strings.TrimSpace(r.Emoji); e != "" {
			s.Kind = StickerEmoji
			s.Emoji = e
		} else {
			s.Kind = StickerImage
			s.Ref = firstNonEmpty(r.Src, r.Ref)
		}
	default:
		return Sticker{}, fmt.Errorf("unknown sticker type %q", r.Type)
	}

	if (s.Kind == StickerEmoji && s.Emoji == "") || (s.Kind == StickerImage && s.Ref == "") {
		return Sticker{}, errNoStickerAsset
	}

	x, y := r.X, r.Y
	if r.Position != nil {
		x, y = r.Position.X, r.Position.Y
	}
	s.X = clampUnit(deref(x, 0.5))
	s.Y = clampUnit(deref(y, 0.5))

	s.Scale = deref(r.Scale, 1)
	if s.Scale <= 0 || math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) {
		s.Scale = 1
	}

	rot := r.Rotation
	if rot == nil {
		rot = r.Rotate
	}
	s.Rotation = normalizeDegrees(deref(rot, 0))
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}

// normalizeDegrees maps any angle into (-180, 180].
func normalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
