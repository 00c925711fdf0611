package database

import (
	"time"

	"github.com/kozaktomas/photo-diary/internal/constants"
)

// Entry is one owner's diary record for one calendar date.
// At most one Entry exists per (Owner, Date).
type Entry struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note"`
	PhotoPath string    `json:"photo_path,omitempty"`
	Stickers  []Sticker `json:"stickers,omitempty"`
	Liked     bool      `json:"liked"`
	CreatedAt time.Time `json:"created_at"`

	// InvalidStickers counts sticker records dropped while parsing the stored list.
	InvalidStickers int `json:"-"`
}

// DateKey returns the entry date in YYYY-MM-DD form.
func (e *Entry) DateKey() string {
	return e.Date.Format(constants.DateLayout)
}

// StickerKind tags which stored variant a sticker came from.
type StickerKind string

// Sticker kinds.
const (
	StickerImage StickerKind = "image"
	StickerEmoji StickerKind = "emoji"
)

// Sticker is a decorative overlay on an entry photo. X and Y are fractions
// (0..1) of the photo area, Rotation is in degrees.
type Sticker struct {
	Kind     StickerKind `json:"kind"`
	Ref      string      `json:"ref,omitempty"`
	Emoji    string      `json:"emoji,omitempty"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Scale    float64     `json:"scale"`
	Rotation float64     `json:"rotation"`
}

// Columns is a bit set of optional entry columns a query should load.
// ID, owner and date are always loaded.
type Columns uint8

// Entry columns.
const (
	ColNote Columns = 1 << iota
	ColPhoto
	ColStickers
	ColLiked
	ColCreatedAt

	AllColumns = ColNote | ColPhoto | ColStickers | ColLiked | ColCreatedAt
)

// Has reports whether all bits of col are set.
func (c Columns) Has(col Columns) bool {
	return c&col == col
}

// EntryQuery selects entries of one owner. A zero From/To leaves that side
// of the date range open.
type EntryQuery struct {
	Owner     string
	From      time.Time
	To        time.Time
	LikedOnly bool
	Columns   Columns
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(constants.DateLayout, s, time.UTC)
}

// TruncateDate drops the clock part of t, keeping its calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
