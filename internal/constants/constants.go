// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Date formats
const (
	// DateLayout is the wire format of calendar dates (request params, store keys)
	DateLayout = "2006-01-02"
)

// Export modes
const (
	ModeDay       = "day"
	ModeWeek      = "week"
	ModeMonth     = "month"
	ModeFavorites = "favorites"
)

// Processing constants
const (
	// DownloadConcurrency is the default number of parallel asset fetches within one page
	DownloadConcurrency = 4

	// MaxImageSize is the maximum dimension (width or height) of a materialized image
	MaxImageSize = 1600

	// JPEGQuality is used when re-encoding opaque assets
	JPEGQuality = 85
)

// Caption constants
const (
	// DayCaptionMaxLines is the caption limit on a day polaroid page
	DayCaptionMaxLines = 4

	// FavoriteCaptionMaxLines is the caption limit on a favorites card
	FavoriteCaptionMaxLines = 2

	// Ellipsis terminates a truncated caption
	Ellipsis = "…"
)
