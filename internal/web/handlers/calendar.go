package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/export"
	"github.com/kozaktomas/photo-diary/internal/web/middleware"
)

// CalendarSource classifies content-bearing dates.
type CalendarSource interface {
	DatesWithContent(ctx context.Context, owner string, from, to time.Time) ([]time.Time, error)
	WeeksWithContent(ctx context.Context, owner string, from, to time.Time) ([]time.Time, error)
	MonthsWithContent(ctx context.Context, owner string, from, to time.Time) ([]entries.YearMonth, error)
}

// CalendarHandler answers which units of a range would produce pages.
type CalendarHandler struct {
	source CalendarSource
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(source CalendarSource) *CalendarHandler {
	return &CalendarHandler{source: source}
}

// CalendarResponse lists content-bearing days, week anchors and months.
type CalendarResponse struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Dates  []string `json:"dates"`
	Weeks  []string `json:"weeks"`
	Months []string `json:"months"`
}

// Get handles GET /calendar?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())
	if owner == "" {
		respondError(w, http.StatusBadRequest, constants.OwnerHeader+" header is required")
		return
	}
	q := r.URL.Query()
	req := export.Request{Mode: constants.ModeDay, From: q.Get("from"), To: q.Get("to"), Owner: owner}
	if err := validateRange(req); err != nil {
		status, msg := exportErrorStatus(err)
		respondError(w, status, msg)
		return
	}
	from, to := mustParseRange(req)

	ctx := r.Context()
	dates, err := h.source.DatesWithContent(ctx, owner, from, to)
	if err != nil {
		h.fail(w, err)
		return
	}
	weeks, err := h.source.WeeksWithContent(ctx, owner, from, to)
	if err != nil {
		h.fail(w, err)
		return
	}
	months, err := h.source.MonthsWithContent(ctx, owner, from, to)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := CalendarResponse{
		From:   req.From,
		To:     req.To,
		Dates:  formatDates(dates),
		Weeks:  formatDates(weeks),
		Months: make([]string, 0, len(months)),
	}
	for _, m := range months {
		resp.Months = append(resp.Months, m.String())
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CalendarHandler) fail(w http.ResponseWriter, err error) {
	log.Printf("calendar query failed: %v", err)
	respondError(w, http.StatusInternalServerError, "failed to load calendar")
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(constants.DateLayout))
	}
	return out
}
