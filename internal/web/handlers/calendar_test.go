package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/database/mock"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/web/middleware"
)

func calendarRequest(owner, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/calendar?"+query, nil)
	return req.WithContext(middleware.SetOwnerInContext(req.Context(), owner))
}

func TestCalendar_Get(t *testing.T) {
	store := mock.NewMockEntryStore()
	for _, e := range []struct {
		date, note string
	}{
		{"2026-02-27", "friday"},
		{"2026-03-02", "monday"},
		{"2026-03-03", " "},
		{"2026-03-04", "wednesday"},
	} {
		d, _ := database.ParseDate(e.date)
		store.AddEntry(database.Entry{Owner: "alice", Date: d, Note: e.note})
	}
	h := NewCalendarHandler(entries.NewProvider(store, nil, nil))

	recorder := httptest.NewRecorder()
	h.Get(recorder, calendarRequest("alice", "from=2026-02-01&to=2026-03-31"))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	var resp CalendarResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	expectedDates := []string{"2026-02-27", "2026-03-02", "2026-03-04"}
	if len(resp.Dates) != len(expectedDates) {
		t.Fatalf("expected dates %v, got %v", expectedDates, resp.Dates)
	}
	for i := range expectedDates {
		if resp.Dates[i] != expectedDates[i] {
			t.Errorf("expected date %s, got %s", expectedDates[i], resp.Dates[i])
		}
	}
	if len(resp.Weeks) != 2 || resp.Weeks[0] != "2026-02-23" || resp.Weeks[1] != "2026-03-02" {
		t.Errorf("unexpected weeks %v", resp.Weeks)
	}
	if len(resp.Months) != 2 || resp.Months[0] != "2026-02" || resp.Months[1] != "2026-03" {
		t.Errorf("unexpected months %v", resp.Months)
	}
}

func TestCalendar_Validation(t *testing.T) {
	h := NewCalendarHandler(entries.NewProvider(mock.NewMockEntryStore(), nil, nil))
	tests := []struct {
		name  string
		owner string
		query string
	}{
		{"missing dates", "alice", ""},
		{"bad date", "alice", "from=2026-13-01&to=2026-12-31"},
		{"reversed", "alice", "from=2026-03-01&to=2026-02-01"},
		{"no owner", "", "from=2026-02-01&to=2026-03-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			h.Get(recorder, calendarRequest(tc.owner, tc.query))
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
			}
		})
	}
}

type failingCalendar struct{}

func (failingCalendar) DatesWithContent(context.Context, string, time.Time, time.Time) ([]time.Time, error) {
	return nil, errors.New("db down")
}

func (failingCalendar) WeeksWithContent(context.Context, string, time.Time, time.Time) ([]time.Time, error) {
	return nil, errors.New("db down")
}

func (failingCalendar) MonthsWithContent(context.Context, string, time.Time, time.Time) ([]entries.YearMonth, error) {
	return nil, errors.New("db down")
}

func TestCalendar_StoreFailure(t *testing.T) {
	h := NewCalendarHandler(failingCalendar{})
	recorder := httptest.NewRecorder()
	h.Get(recorder, calendarRequest("alice", "from=2026-02-01&to=2026-03-01"))

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
}
