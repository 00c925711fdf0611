package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/export"
	"github.com/kozaktomas/photo-diary/internal/render"
	"github.com/kozaktomas/photo-diary/internal/web/middleware"
)

var errRangeTooLong = fmt.Errorf("date range exceeds %d days", constants.MaxExportRangeDays)

// Builder renders an export request.
type Builder interface {
	Build(ctx context.Context, req export.Request) (*export.Result, error)
}

// ExportsHandler handles export endpoints
type ExportsHandler struct {
	builder    Builder
	jobManager *JobManager
}

// NewExportsHandler creates a new exports handler
func NewExportsHandler(builder Builder, jm *JobManager) *ExportsHandler {
	return &ExportsHandler{
		builder:    builder,
		jobManager: jm,
	}
}

// ExportRequest represents an export request body
type ExportRequest struct {
	Mode string `json:"mode"`
	From string `json:"from"`
	To   string `json:"to"`
}

// RenderedPage is one page returned by the synchronous render endpoint.
type RenderedPage struct {
	PageMeta
	DataURI string `json:"data_uri"`
}

// RenderResponse is the body of the synchronous render endpoint.
type RenderResponse struct {
	Pages  []RenderedPage `json:"pages"`
	Report export.Report  `json:"report"`
}

// decodeExportRequest reads and validates the body; it writes the error response itself.
func decodeExportRequest(w http.ResponseWriter, r *http.Request) (export.Request, bool) {
	var body ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return export.Request{}, false
	}

	req := export.Request{
		Mode:  body.Mode,
		From:  body.From,
		To:    body.To,
		Owner: middleware.GetOwner(r.Context()),
	}
	if req.Owner == "" {
		respondError(w, http.StatusBadRequest, constants.OwnerHeader+" header is required")
		return export.Request{}, false
	}
	if err := validateRange(req); err != nil {
		status, msg := exportErrorStatus(err)
		respondError(w, status, msg)
		return export.Request{}, false
	}
	return req, true
}

// validateRange runs the exporter validation and bounds the range length.
func validateRange(req export.Request) error {
	if err := export.Validate(req); err != nil {
		return err
	}
	if req.Mode == constants.ModeFavorites {
		return nil
	}
	from, to := mustParseRange(req)
	// Both ends are inclusive.
	if days := int(to.Sub(from)/(24*time.Hour)) + 1; days > constants.MaxExportRangeDays {
		return errRangeTooLong
	}
	return nil
}

// mustParseRange parses the dates of a request that already passed validation.
func mustParseRange(req export.Request) (time.Time, time.Time) {
	from, _ := database.ParseDate(req.From)
	to, _ := database.ParseDate(req.To)
	return from, to
}

// Start starts a new export job
func (h *ExportsHandler) Start(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	jobID := uuid.New().String()
	job := h.jobManager.CreateJob(jobID, req)

	ctx, cancel := context.WithCancel(context.Background())
	job.setCancel(cancel)
	go h.runExportJob(ctx, cancel, job, req)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"mode":   req.Mode,
		"status": string(JobStatusPending),
	})
}

// lookupJob finds the job named by the jobId URL param, writing the error response itself.
func (h *ExportsHandler) lookupJob(w http.ResponseWriter, r *http.Request) *ExportJob {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return nil
	}
	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return nil
	}
	return job
}

// Status returns the status of an export job
func (h *ExportsHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.lookupJob(w, r)
	if job == nil {
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}

// List returns all known export jobs
func (h *ExportsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobManager.ListJobs()
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, job.Snapshot())
	}
	respondJSON(w, http.StatusOK, views)
}

// Events streams job events via SSE
func (h *ExportsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*ExportJob).Snapshot()
		},
	)
}

// Page serves one rendered page of a completed job as PNG
func (h *ExportsHandler) Page(w http.ResponseWriter, r *http.Request) {
	job := h.lookupJob(w, r)
	if job == nil {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		respondError(w, http.StatusBadRequest, "invalid page number")
		return
	}
	if status := job.GetStatus(); status != JobStatusCompleted {
		respondError(w, http.StatusConflict, "job is "+string(status))
		return
	}
	page, ok := job.Page(n)
	if !ok {
		respondError(w, http.StatusNotFound, "page not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(page.PNG)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"page-%04d.png\"", page.PageNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(page.PNG)
}

// Cancel cancels an export job
func (h *ExportsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.lookupJob(w, r)
	if job == nil {
		return
	}
	if isJobTerminal(job.GetStatus()) {
		respondError(w, http.StatusConflict, "job already finished")
		return
	}
	job.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// Render runs an export synchronously and returns the pages as PNG data URIs
func (h *ExportsHandler) Render(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	result, err := h.builder.Build(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("export render failed: mode=%s owner=%s: %v", req.Mode, sanitizeForLog(req.Owner), err)
		status, msg := exportErrorStatus(err)
		respondError(w, status, msg)
		return
	}

	resp := RenderResponse{Pages: make([]RenderedPage, 0, len(result.Pages)), Report: result.Report}
	for _, p := range result.Pages {
		resp.Pages = append(resp.Pages, RenderedPage{PageMeta: pageMeta(p), DataURI: pngDataURI(p)})
	}
	w.Header().Set("X-Export-Warnings", strconv.Itoa(len(result.Report.Warnings)+len(result.Report.Validation)))
	respondJSON(w, http.StatusOK, resp)
}

// runExportJob runs the export job in the background
func (h *ExportsHandler) runExportJob(ctx context.Context, cancel context.CancelFunc, job *ExportJob, req export.Request) {
	defer cancel()

	job.mu.Lock()
	if job.Status == JobStatusCancelled {
		job.mu.Unlock()
		return
	}
	job.Status = JobStatusRunning
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "started", Message: "Export job started"})

	req.OnProgress = func(done, total int) {
		job.mu.Lock()
		job.DoneUnits = done
		job.TotalUnits = total
		if total > 0 {
			job.Progress = done * 100 / total
		}
		job.mu.Unlock()
		job.SendEvent(JobEvent{
			Type: "progress",
			Data: map[string]int{"done": done, "total": total},
		})
	}

	result, err := h.builder.Build(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			// Cancel already set the status and notified listeners.
			return
		}
		log.Printf("export job %s failed: %v", job.ID, err)
		_, msg := exportErrorStatus(err)
		h.failJob(job, msg)
		return
	}

	now := time.Now()
	job.mu.Lock()
	if job.Status == JobStatusCancelled {
		job.mu.Unlock()
		return
	}
	job.Status = JobStatusCompleted
	job.CompletedAt = &now
	job.Progress = 100
	job.Report = &result.Report
	job.pages = result.Pages
	job.mu.Unlock()

	job.SendEvent(JobEvent{Type: "completed", Data: job.Snapshot()})
}

func (h *ExportsHandler) failJob(job *ExportJob, message string) {
	now := time.Now()
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = message
	job.CompletedAt = &now
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "job_error", Message: message})
}

func pngDataURI(p render.PageImage) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(p.PNG)
}
