package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/photo-diary/internal/export"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// errExportUnavailable is shown when an export fails as a whole; the caller may retry.
const errExportUnavailable = "export is temporarily unavailable, please try again"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// exportErrorStatus maps an export error to a status code and a client message.
// Validation errors are reported as-is, everything else stays generic.
func exportErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, export.ErrInvalidMode),
		errors.Is(err, export.ErrInvalidDate),
		errors.Is(err, export.ErrInvalidRange),
		errors.Is(err, errRangeTooLong):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, export.ErrFontsNotReady):
		return http.StatusServiceUnavailable, errExportUnavailable
	default:
		return http.StatusInternalServerError, "export failed"
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
