package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-diary/internal/export"
	"github.com/kozaktomas/photo-diary/internal/render"
	"github.com/kozaktomas/photo-diary/internal/web/middleware"
)

// fakeBuilder returns a canned result. When block is set, Build waits for it
// to be closed or for the context to end.
type fakeBuilder struct {
	mu       sync.Mutex
	result   *export.Result
	err      error
	block    chan struct{}
	requests []export.Request
}

func (f *fakeBuilder) Build(ctx context.Context, req export.Request) (*export.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if req.OnProgress != nil {
		req.OnProgress(1, 2)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if req.OnProgress != nil {
		req.OnProgress(2, 2)
	}
	return f.result, nil
}

func (f *fakeBuilder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func twoPageResult() *export.Result {
	return &export.Result{
		Pages: []render.PageImage{
			{PNG: []byte("png-1"), Width: 1240, Height: 1754, PageNumber: 1, TotalPages: 2, Mode: "day", Label: "2026-03-02"},
			{PNG: []byte("png-2"), Width: 1240, Height: 1754, PageNumber: 2, TotalPages: 2, Mode: "day", Label: "2026-03-04", Placeholder: true},
		},
		Report: export.Report{Mode: "day", Pages: 2, Labels: []string{"2026-03-02", "2026-03-04"}, Placeholders: 1, Warnings: []string{"2026-03-04: no data"}},
	}
}

func newExportsRouter(builder Builder, defaultOwner string) (*chi.Mux, *JobManager) {
	jm := NewJobManager()
	h := NewExportsHandler(builder, jm)
	r := chi.NewRouter()
	r.Use(middleware.WithOwner(defaultOwner))
	r.Post("/exports", h.Start)
	r.Get("/exports", h.List)
	r.Post("/exports/render", h.Render)
	r.Get("/exports/{jobId}", h.Status)
	r.Get("/exports/{jobId}/events", h.Events)
	r.Get("/exports/{jobId}/pages/{n}", h.Page)
	r.Delete("/exports/{jobId}", h.Cancel)
	return r, jm
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func waitForStatus(t *testing.T, job *ExportJob, expected JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job.GetStatus() == expected {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected job status %s, got %s", expected, job.GetStatus())
}

func startJob(t *testing.T, r http.Handler, jm *JobManager, body string) *ExportJob {
	t.Helper()
	recorder := doRequest(r, http.MethodPost, "/exports", body)
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, recorder.Code, recorder.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	job := jm.GetJob(resp["job_id"])
	if job == nil {
		t.Fatalf("job %s not registered", resp["job_id"])
	}
	return job
}

const dayBody = `{"mode":"day","from":"2026-03-01","to":"2026-03-31"}`

func TestExportsRender_Success(t *testing.T) {
	builder := &fakeBuilder{result: twoPageResult()}
	r, _ := newExportsRouter(builder, "alice")

	recorder := doRequest(r, http.MethodPost, "/exports/render", dayBody)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("X-Export-Warnings"); got != "1" {
		t.Errorf("expected X-Export-Warnings '1', got '%s'", got)
	}

	var resp RenderResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(resp.Pages))
	}
	if resp.Pages[0].DataURI != "data:image/png;base64,cG5nLTE=" {
		t.Errorf("unexpected data URI '%s'", resp.Pages[0].DataURI)
	}
	if !resp.Pages[1].Placeholder || resp.Pages[1].TotalPages != 2 {
		t.Errorf("unexpected second page %+v", resp.Pages[1].PageMeta)
	}
	if resp.Report.Placeholders != 1 {
		t.Errorf("expected 1 placeholder in report, got %d", resp.Report.Placeholders)
	}
	if builder.requests[0].Owner != "alice" {
		t.Errorf("expected owner 'alice', got '%s'", builder.requests[0].Owner)
	}
}

func TestExportsRender_OwnerHeaderWins(t *testing.T) {
	builder := &fakeBuilder{result: &export.Result{Pages: []render.PageImage{}}}
	r, _ := newExportsRouter(builder, "alice")

	req := httptest.NewRequest(http.MethodPost, "/exports/render", strings.NewReader(dayBody))
	req.Header.Set("X-Diary-Owner", "bob")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if builder.requests[0].Owner != "bob" {
		t.Errorf("expected owner 'bob', got '%s'", builder.requests[0].Owner)
	}
	if !strings.Contains(recorder.Body.String(), `"pages":[]`) {
		t.Errorf("expected empty page list, got %s", recorder.Body.String())
	}
}

func TestExportsRender_BadRequests(t *testing.T) {
	tests := []struct {
		name         string
		owner        string
		body         string
		statusCode   int
		errorContain string
	}{
		{"invalid json", "alice", `{"mode":`, http.StatusBadRequest, errInvalidRequestBody},
		{"unknown mode", "alice", `{"mode":"year","from":"2026-01-01","to":"2026-01-02"}`, http.StatusBadRequest, "invalid export mode"},
		{"bad date", "alice", `{"mode":"day","from":"01/01/2026","to":"2026-01-02"}`, http.StatusBadRequest, "invalid date"},
		{"reversed", "alice", `{"mode":"week","from":"2026-02-01","to":"2026-01-01"}`, http.StatusBadRequest, "after"},
		{"too long", "alice", `{"mode":"day","from":"2024-01-01","to":"2026-01-01"}`, http.StatusBadRequest, "exceeds"},
		{"no owner", "", dayBody, http.StatusBadRequest, "X-Diary-Owner"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			builder := &fakeBuilder{result: twoPageResult()}
			r, _ := newExportsRouter(builder, tc.owner)

			recorder := doRequest(r, http.MethodPost, "/exports/render", tc.body)
			if recorder.Code != tc.statusCode {
				t.Errorf("expected status %d, got %d", tc.statusCode, recorder.Code)
			}
			if !strings.Contains(recorder.Body.String(), tc.errorContain) {
				t.Errorf("expected error containing '%s', got '%s'", tc.errorContain, recorder.Body.String())
			}
			if builder.calls() != 0 {
				t.Errorf("expected builder not to be called, got %d calls", builder.calls())
			}
		})
	}
}

func TestValidateRange_InclusiveLimit(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"single day", "2026-03-01", "2026-03-01", false},
		{"366 days inclusive", "2024-01-01", "2024-12-31", false},
		{"365 days apart", "2025-01-01", "2026-01-01", false},
		{"367 days inclusive", "2024-01-01", "2025-01-01", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRange(export.Request{Mode: "day", From: tc.from, To: tc.to, Owner: "alice"})
			if tc.wantErr && !errors.Is(err, errRangeTooLong) {
				t.Errorf("expected errRangeTooLong, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestExportsRender_FavoritesSkipDateValidation(t *testing.T) {
	builder := &fakeBuilder{result: &export.Result{Pages: []render.PageImage{}}}
	r, _ := newExportsRouter(builder, "alice")

	recorder := doRequest(r, http.MethodPost, "/exports/render", `{"mode":"favorites","from":"nonsense"}`)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
}

func TestExportsRender_FontsNotReady(t *testing.T) {
	builder := &fakeBuilder{err: errors.Join(export.ErrFontsNotReady, errors.New("corrupt ttf"))}
	r, _ := newExportsRouter(builder, "alice")

	recorder := doRequest(r, http.MethodPost, "/exports/render", dayBody)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "corrupt") {
		t.Errorf("expected generic message, got %s", recorder.Body.String())
	}
}

func TestExportJob_Lifecycle(t *testing.T) {
	builder := &fakeBuilder{result: twoPageResult()}
	r, jm := newExportsRouter(builder, "alice")

	job := startJob(t, r, jm, dayBody)
	waitForStatus(t, job, JobStatusCompleted)

	recorder := doRequest(r, http.MethodGet, "/exports/"+job.ID, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var view JobView
	if err := json.Unmarshal(recorder.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if view.Progress != 100 || view.DoneUnits != 2 || view.TotalUnits != 2 {
		t.Errorf("unexpected progress %d (%d/%d)", view.Progress, view.DoneUnits, view.TotalUnits)
	}
	if len(view.Pages) != 2 || view.Pages[1].Label != "2026-03-04" {
		t.Errorf("unexpected pages %+v", view.Pages)
	}
	if view.Report == nil || view.Report.Pages != 2 {
		t.Errorf("unexpected report %+v", view.Report)
	}

	recorder = doRequest(r, http.MethodGet, "/exports/"+job.ID+"/pages/2", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if recorder.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got '%s'", recorder.Header().Get("Content-Type"))
	}
	if !bytes.Equal(recorder.Body.Bytes(), []byte("png-2")) {
		t.Errorf("unexpected page body '%s'", recorder.Body.String())
	}

	for path, status := range map[string]int{
		"/exports/" + job.ID + "/pages/3": http.StatusNotFound,
		"/exports/" + job.ID + "/pages/0": http.StatusBadRequest,
		"/exports/" + job.ID + "/pages/x": http.StatusBadRequest,
		"/exports/unknown/pages/1":        http.StatusNotFound,
		"/exports/unknown":                http.StatusNotFound,
	} {
		if recorder := doRequest(r, http.MethodGet, path, ""); recorder.Code != status {
			t.Errorf("%s: expected status %d, got %d", path, status, recorder.Code)
		}
	}

	if recorder := doRequest(r, http.MethodDelete, "/exports/"+job.ID, ""); recorder.Code != http.StatusConflict {
		t.Errorf("expected cancelling a finished job to conflict, got %d", recorder.Code)
	}
}

func TestExportJob_Cancel(t *testing.T) {
	builder := &fakeBuilder{result: twoPageResult(), block: make(chan struct{})}
	defer close(builder.block)
	r, jm := newExportsRouter(builder, "alice")

	job := startJob(t, r, jm, dayBody)
	waitForStatus(t, job, JobStatusRunning)

	recorder := doRequest(r, http.MethodGet, "/exports/"+job.ID+"/pages/1", "")
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected pages of a running job to conflict, got %d", recorder.Code)
	}

	recorder = doRequest(r, http.MethodDelete, "/exports/"+job.ID, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	waitForStatus(t, job, JobStatusCancelled)

	// The builder observes cancellation and the job stays cancelled.
	time.Sleep(20 * time.Millisecond)
	if status := job.GetStatus(); status != JobStatusCancelled {
		t.Errorf("expected cancelled, got %s", status)
	}
}

func TestExportJob_Failure(t *testing.T) {
	builder := &fakeBuilder{err: errors.New("database exploded")}
	r, jm := newExportsRouter(builder, "alice")

	job := startJob(t, r, jm, dayBody)
	waitForStatus(t, job, JobStatusFailed)

	view := job.Snapshot()
	if view.Error != "export failed" {
		t.Errorf("expected generic error, got '%s'", view.Error)
	}
}

func TestExportJob_EventsOfFinishedJob(t *testing.T) {
	builder := &fakeBuilder{result: twoPageResult()}
	r, jm := newExportsRouter(builder, "alice")

	job := startJob(t, r, jm, dayBody)
	waitForStatus(t, job, JobStatusCompleted)

	recorder := doRequest(r, http.MethodGet, "/exports/"+job.ID+"/events", "")
	if recorder.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("expected text/event-stream, got '%s'", recorder.Header().Get("Content-Type"))
	}
	body := recorder.Body.String()
	if !strings.HasPrefix(body, "event: status\ndata: ") {
		t.Errorf("expected a status event, got '%s'", body)
	}
	if !strings.Contains(body, `"status":"completed"`) {
		t.Errorf("expected completed status in event, got '%s'", body)
	}
}

func TestExportJob_List(t *testing.T) {
	builder := &fakeBuilder{result: twoPageResult()}
	r, jm := newExportsRouter(builder, "alice")

	job := startJob(t, r, jm, dayBody)
	waitForStatus(t, job, JobStatusCompleted)

	recorder := doRequest(r, http.MethodGet, "/exports", "")
	var views []JobView
	if err := json.Unmarshal(recorder.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(views) != 1 || views[0].ID != job.ID {
		t.Errorf("unexpected job list %+v", views)
	}
}

func TestJobManager_PruneFinished(t *testing.T) {
	jm := NewJobManager()
	done := jm.CreateJob("done", export.Request{Mode: "day"})
	old := time.Now().Add(-2 * time.Hour)
	done.Status = JobStatusCompleted
	done.CompletedAt = &old
	jm.CreateJob("running", export.Request{Mode: "week"}).Status = JobStatusRunning

	if removed := jm.PruneFinished(time.Now().Add(-time.Hour)); removed != 1 {
		t.Errorf("expected 1 removed job, got %d", removed)
	}
	if jm.GetJob("done") != nil || jm.GetJob("running") == nil {
		t.Error("expected only the finished job to be pruned")
	}
}
