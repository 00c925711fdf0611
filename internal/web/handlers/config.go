package handlers

import (
	"net/http"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/export"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
	width  int
	height int
}

// NewConfigHandler creates a new config handler. width and height are the
// page size in pixels.
func NewConfigHandler(cfg *config.Config, width, height int) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
		width:  width,
		height: height,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Modes        []string            `json:"modes"`
	Backend      string              `json:"backend"`
	DefaultOwner string              `json:"default_owner,omitempty"`
	PageWidth    int                 `json:"page_width"`
	PageHeight   int                 `json:"page_height"`
	MaxRangeDays int                 `json:"max_range_days"`
	BlobStore    bool                `json:"blob_store"`
	Theme        config.BrandTheme   `json:"theme"`
	Caption      config.CaptionTheme `json:"caption"`
}

// Get returns the export configuration visible to clients
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		Modes:        export.Modes,
		Backend:      database.BackendName(),
		DefaultOwner: h.config.Export.DefaultOwner,
		PageWidth:    h.width,
		PageHeight:   h.height,
		MaxRangeDays: constants.MaxExportRangeDays,
		BlobStore:    h.config.BlobStore.URL != "",
		Theme:        h.config.Theme.Brand,
		Caption:      h.config.Theme.Caption,
	}

	respondJSON(w, http.StatusOK, response)
}
