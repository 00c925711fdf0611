package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/export"
	"github.com/kozaktomas/photo-diary/internal/render"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// PageMeta describes one rendered page without its pixels.
type PageMeta struct {
	PageNumber  int    `json:"page_number"`
	TotalPages  int    `json:"total_pages"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Mode        string `json:"mode"`
	Label       string `json:"label"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

func pageMeta(p render.PageImage) PageMeta {
	return PageMeta{
		PageNumber:  p.PageNumber,
		TotalPages:  p.TotalPages,
		Width:       p.Width,
		Height:      p.Height,
		Mode:        p.Mode,
		Label:       p.Label,
		Placeholder: p.Placeholder,
	}
}

// JobView is the JSON form of an export job.
type JobView struct {
	ID          string         `json:"id"`
	Mode        string         `json:"mode"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	Owner       string         `json:"owner"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	DoneUnits   int            `json:"done_units"`
	TotalUnits  int            `json:"total_units"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Pages       []PageMeta     `json:"pages,omitempty"`
	Report      *export.Report `json:"report,omitempty"`
}

// ExportJob represents an async export job. Fields are guarded by the
// embedded broadcaster's mutex.
type ExportJob struct {
	EventBroadcaster

	ID          string
	Mode        string
	From        string
	To          string
	Owner       string
	Status      JobStatus
	Progress    int
	DoneUnits   int
	TotalUnits  int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Report      *export.Report

	pages []render.PageImage
}

// GetStatus returns the current job status (implements SSEJob).
func (j *ExportJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Cancel cancels the export job. Finished jobs keep their status.
func (j *ExportJob) Cancel() {
	j.mu.Lock()
	if isJobTerminal(j.Status) {
		j.mu.Unlock()
		return
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.mu.Unlock()
	j.EventBroadcaster.Cancel()
}

// Snapshot returns a copy of the job fields safe to encode while the job runs.
func (j *ExportJob) Snapshot() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	pages := make([]PageMeta, 0, len(j.pages))
	for _, p := range j.pages {
		pages = append(pages, pageMeta(p))
	}
	return JobView{
		ID:          j.ID,
		Mode:        j.Mode,
		From:        j.From,
		To:          j.To,
		Owner:       j.Owner,
		Status:      j.Status,
		Progress:    j.Progress,
		DoneUnits:   j.DoneUnits,
		TotalUnits:  j.TotalUnits,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Pages:       pages,
		Report:      j.Report,
	}
}

// Page returns page n (1-based) of a completed job.
func (j *ExportJob) Page(n int) (render.PageImage, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.Status != JobStatusCompleted || n < 1 || n > len(j.pages) {
		return render.PageImage{}, false
	}
	return j.pages[n-1], true
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

// setCancel stores the cancel function of the job context.
func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*ExportJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*ExportJob),
	}
}

// CreateJob creates a new export job.
func (m *JobManager) CreateJob(id string, req export.Request) *ExportJob {
	job := &ExportJob{
		ID:        id,
		Mode:      req.Mode,
		From:      req.From,
		To:        req.To,
		Owner:     req.Owner,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *ExportJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}

// ListJobs returns all jobs, newest first.
func (m *JobManager) ListJobs() []*ExportJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*ExportJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].StartedAt.After(jobs[k].StartedAt)
	})
	return jobs
}

// PruneFinished drops terminal jobs that completed before cutoff and
// returns how many were removed. Rendered pages are held in memory until then.
func (m *JobManager) PruneFinished(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		job.mu.RLock()
		done := isJobTerminal(job.Status) && job.CompletedAt != nil && job.CompletedAt.Before(cutoff)
		job.mu.RUnlock()
		if done {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}
