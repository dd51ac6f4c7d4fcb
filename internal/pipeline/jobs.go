package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
)

var (
	ErrJobNotFound = errors.New("export job not found")
	ErrQueueFull   = errors.New("export queue is full")
	ErrNotReady    = errors.New("export is not complete")
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusFetching  JobStatus = "fetching"
	StatusRendering JobStatus = "rendering"
	StatusPacking   JobStatus = "packing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one template render to docx.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	template *content.Template
	data     field.Map
	result   []byte
	errors   []string
}

// Progress counts what the render produced.
type Progress struct {
	Sections int      `json:"sections"`
	Images   int      `json:"images"`
	Bytes    int      `json:"bytes"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job. An empty filename is derived from the
// template title.
func NewJob(filename string, tmpl *content.Template, data field.Map) *Job {
	if filename == "" {
		filename = "document.docx"
		if tmpl != nil && tmpl.Properties.Title != "" {
			filename = tmpl.Properties.Title + ".docx"
		}
	}
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		template:  tmpl,
		data:      data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs idle for longer than the TTL and returns how many
// were dropped.
func (s *JobStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed during phase.
func (j *Job) Fail(phase string, err error) {
	j.AddError(err.Error())
	j.SetStatus(StatusFailed, phase)
}

// SetCounts records the section and image counts of the template.
func (j *Job) SetCounts(sections, images int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = sections
	j.Progress.Images = images
	j.UpdatedAt = time.Now()
}

// Complete stores the packed document and marks the job completed.
func (j *Job) Complete(doc []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = doc
	j.ContentHash = ContentHashHex(doc)
	j.Progress.Bytes = len(doc)
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
	// The inputs are no longer needed once the bytes exist.
	j.template = nil
	j.data = nil
}

// Result returns the packed document, or ErrNotReady until the job completes.
func (j *Job) Result() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrNotReady, j.Status)
	}
	return j.result, nil
}

func (j *Job) inputs() (*content.Template, field.Map) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.template, j.data
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:       j.ID,
		Filename: j.Filename,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: Progress{
			Sections: j.Progress.Sections,
			Images:   j.Progress.Images,
			Bytes:    j.Progress.Bytes,
			Errors:   errs,
		},
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
