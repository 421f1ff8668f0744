// Package jobs runs chapter generation in the background, one job at a time,
// and keeps each job's latest status in memory for polling clients.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/logger"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/videoid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DefaultRetention is how many finished jobs are kept.
const DefaultRetention = 100

// Request describes a job. Exactly one of VideoID and Transcript is set.
type Request struct {
	VideoID    string  `json:"videoId,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
	Language   string  `json:"language,omitempty"`
	Seconds    float64 `json:"seconds,omitempty"`
	Captions   bool    `json:"captions,omitempty"`
}

// Job is a snapshot of a job's state.
type Job struct {
	ID        string           `json:"id"`
	Status    Status           `json:"status"`
	Progress  int              `json:"progress"`
	Message   string           `json:"message,omitempty"`
	Stage     pipeline.Stage   `json:"stage,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Done reports whether the job reached a terminal status.
func (j Job) Done() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// runner is the slice of *pipeline.Pipeline the manager drives.
type runner interface {
	Run(ctx context.Context, videoID string, progress pipeline.ProgressFunc) (pipeline.Result, error)
	RunText(ctx context.Context, in pipeline.TextInput, progress pipeline.ProgressFunc) (pipeline.Result, error)
	RunCaptions(ctx context.Context, videoID, language string, progress pipeline.ProgressFunc) (pipeline.Result, error)
}

var _ runner = (*pipeline.Pipeline)(nil)

// Manager owns the job table and the single worker slot.
type Manager struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	order     []string
	active    string
	retention int

	runner runner
	ctx    context.Context
	wg     sync.WaitGroup
	now    func() time.Time
	newID  func() string
	log    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention sets how many finished jobs are kept in memory.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager creates a Manager. Jobs run under ctx; canceling it cancels
// the running job.
func NewManager(ctx context.Context, r runner, opts ...Option) *Manager {
	m := &Manager{
		jobs:      make(map[string]*Job),
		retention: DefaultRetention,
		runner:    r,
		ctx:       ctx,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates req and starts it in the background. It returns ErrBusy
// while another job is queued or running.
func (m *Manager) Submit(req Request) (string, error) {
	req, err := normalize(req)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.active != "" {
		active := m.active
		m.mu.Unlock()
		return "", fmt.Errorf("job %s in progress: %w", active, ErrBusy)
	}
	now := m.now()
	job := &Job{ID: m.newID(), Status: StatusQueued, CreatedAt: now, UpdatedAt: now}
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.active = job.ID
	m.evictLocked()
	m.mu.Unlock()

	m.log.Info("job submitted", "job_id", job.ID, "video_id", req.VideoID, "text", req.Transcript != "")
	m.wg.Add(1)
	go m.run(job.ID, req)
	return job.ID, nil
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	snap := *job
	return snap, nil
}

// Wait blocks until the running job, if any, has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(id string, req Request) {
	defer m.wg.Done()

	m.update(id, func(j *Job) { j.Status = StatusRunning })
	progress := func(pct int, msg string) {
		m.update(id, func(j *Job) {
			j.Progress = pct
			j.Message = msg
		})
	}

	var (
		res pipeline.Result
		err error
	)
	switch {
	case req.Transcript != "":
		res, err = m.runner.RunText(m.ctx, pipeline.TextInput{
			Transcript: req.Transcript,
			Language:   req.Language,
			Seconds:    req.Seconds,
		}, progress)
	case req.Captions:
		res, err = m.runner.RunCaptions(m.ctx, req.VideoID, req.Language, progress)
	default:
		res, err = m.runner.Run(m.ctx, req.VideoID, progress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = ""
	job := m.jobs[id]
	job.UpdatedAt = m.now()
	if err != nil {
		job.Status = StatusFailed
		job.Error = UserMessage(err)
		var se *pipeline.StageError
		if errors.As(err, &se) {
			job.Stage = se.Stage
		}
		m.log.Error("job failed", "job_id", id, "error", err)
		return
	}
	job.Status = StatusSucceeded
	job.Stage = pipeline.StageDone
	job.Progress = 100
	job.Result = &res
	m.log.Info("job succeeded", "job_id", id, "chapters", len(res.Chapters))
}

func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = m.now()
	}
}

// evictLocked drops the oldest finished jobs beyond the retention limit.
func (m *Manager) evictLocked() {
	for len(m.order) > m.retention {
		idx := -1
		for i, id := range m.order {
			if id != m.active {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		delete(m.jobs, m.order[idx])
		m.order = append(m.order[:idx], m.order[idx+1:]...)
	}
}

// normalize validates a request and reduces video URLs to their ID.
func normalize(req Request) (Request, error) {
	req.VideoID = strings.TrimSpace(req.VideoID)
	req.Transcript = strings.TrimSpace(req.Transcript)

	switch {
	case req.VideoID == "" && req.Transcript == "":
		return req, fmt.Errorf("videoId or transcript is required: %w", ErrInvalidRequest)
	case req.VideoID != "" && req.Transcript != "":
		return req, fmt.Errorf("videoId and transcript are exclusive: %w", ErrInvalidRequest)
	case req.Seconds < 0:
		return req, fmt.Errorf("seconds must not be negative: %w", ErrInvalidRequest)
	}

	if req.VideoID != "" {
		vid, err := videoid.Parse(req.VideoID)
		if err != nil {
			return req, fmt.Errorf("%v: %w", err, ErrInvalidRequest)
		}
		req.VideoID = vid
	}
	if req.Language != "" {
		if err := lang.Validate(req.Language); err != nil {
			return req, fmt.Errorf("%v: %w", err, ErrInvalidRequest)
		}
	}
	return req, nil
}
