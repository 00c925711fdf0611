// Package constants provides shared constants used across the codebase.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Export job constants
const (
	// MaxExportRangeDays bounds the date range of a single export request
	MaxExportRangeDays = 366

	// OwnerHeader selects the diary owner on API requests
	OwnerHeader = "X-Diary-Owner"
)
