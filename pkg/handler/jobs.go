package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yumyai/roaryviz/pkg/model"
)

// JobStatus represents the lifecycle of a rarefaction request.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// RarefactionJob keeps track of a rarefaction curve computed in the background.
type RarefactionJob struct {
	ID           string                   `json:"id"`
	DatasetID    string                   `json:"dataset_id"`
	Permutations int                      `json:"permutations"`
	Seed         int64                    `json:"seed"`
	Status       JobStatus                `json:"status"`
	Done         int                      `json:"done"`
	Points       []model.RarefactionPoint `json:"points,omitempty"`
	Error        string                   `json:"error,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Finished reports whether the job will not change any more.
func (j RarefactionJob) Finished() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// JobFunc computes a curve, reporting finished permutations through progress.
type JobFunc func(ctx context.Context, progress func(done, total int)) ([]model.RarefactionPoint, error)

// JobManager stores job states indexed by job ID and runs them.
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*RarefactionJob

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	onStatus func(from, to string)
}

// NewJobManager constructs a job manager with no jobs. onStatus, when set, sees
// every status change; from is "" for new jobs.
func NewJobManager(onStatus func(from, to string)) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		jobs:     make(map[string]*RarefactionJob),
		ctx:      ctx,
		cancel:   cancel,
		onStatus: onStatus,
	}
}

// NewJob registers a queued job.
func (m *JobManager) NewJob(datasetID string, permutations int, seed int64) RarefactionJob {
	now := time.Now()
	job := &RarefactionJob{
		ID:           uuid.NewString(),
		DatasetID:    datasetID,
		Permutations: permutations,
		Seed:         seed,
		Status:       JobQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.statusChanged("", JobQueued)
	return *job
}

// Start runs fn for the job in its own goroutine. timeout <= 0 means none.
func (m *JobManager) Start(jobID string, timeout time.Duration, fn JobFunc) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx := m.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		m.SetRunning(jobID)
		points, err := m.run(ctx, jobID, fn)
		if err != nil {
			m.FailJob(jobID, err)
			return
		}
		m.CompleteJob(jobID, points)
	}()
}

func (m *JobManager) run(ctx context.Context, jobID string, fn JobFunc) (points []model.RarefactionPoint, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx, func(done, _ int) { m.SetProgress(jobID, done) })
}

// SetRunning marks the job as running.
func (m *JobManager) SetRunning(jobID string) {
	m.updateJob(jobID, func(job *RarefactionJob) {
		job.Status = JobRunning
	})
}

func (m *JobManager) SetProgress(jobID string, done int) {
	m.updateJob(jobID, func(job *RarefactionJob) {
		job.Done = done
	})
}

// CompleteJob stores the curve and marks the job complete.
func (m *JobManager) CompleteJob(jobID string, points []model.RarefactionPoint) {
	m.updateJob(jobID, func(job *RarefactionJob) {
		job.Status = JobCompleted
		job.Done = job.Permutations
		job.Points = points
	})
}

// FailJob records a failure and attaches a user-facing error message.
func (m *JobManager) FailJob(jobID string, err error) {
	m.updateJob(jobID, func(job *RarefactionJob) {
		job.Status = JobFailed
		job.Error = toAppError(err).Message
	})
}

// GetJob fetches a copy of a job by ID.
func (m *JobManager) GetJob(jobID string) (RarefactionJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return RarefactionJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return *job, nil
}

// Prune forgets finished jobs last updated before cutoff.
func (m *JobManager) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, job := range m.jobs {
		if job.Finished() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n
}

// Close cancels running jobs and waits for them.
func (m *JobManager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *JobManager) updateJob(jobID string, update func(job *RarefactionJob)) {
	m.mu.Lock()

	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return
	}

	from := job.Status
	update(job)
	job.UpdatedAt = time.Now()
	to := job.Status
	m.mu.Unlock()

	if from != to {
		m.statusChanged(from, to)
	}
}

func (m *JobManager) statusChanged(from, to JobStatus) {
	if m.onStatus != nil {
		m.onStatus(string(from), string(to))
	}
}
