package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
	"github.com/noah-isme/physed-journal-api/pkg/jobs"
)

// Migration job types.
const (
	JobTypeSemesterMigration = "semester_migration"
	JobTypeDebtClosure       = "debt_closure"
)

// Migration job states.
const (
	JobStateQueued   = "queued"
	JobStateRunning  = "running"
	JobStateFinished = "finished"
	JobStateFailed   = "failed"
)

const maxTrackedJobs = 100

type migrationRunner interface {
	Run(ctx context.Context, target string) (*MigrationSummary, error)
	RunDebtors(ctx context.Context) (*MigrationSummary, error)
}

// MigrationJob is the observable status of one queued run.
type MigrationJob struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Target     string            `json:"target,omitempty"`
	State      string            `json:"state"`
	Summary    *MigrationSummary `json:"summary,omitempty"`
	Error      string            `json:"error,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// MigrationWorkerConfig tunes the background worker.
type MigrationWorkerConfig struct {
	BufferSize        int
	DebtSweepInterval time.Duration
	Logger            *zap.Logger
}

// MigrationWorker runs bulk migrations on a single background goroutine so that
// runs never overlap.
type MigrationWorker struct {
	runner migrationRunner
	queue  *jobs.Queue
	sweep  time.Duration
	logger *zap.Logger

	mu     sync.RWMutex
	status map[string]*MigrationJob

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMigrationWorker wires the runner to a single-worker queue without retries.
func NewMigrationWorker(runner migrationRunner, cfg MigrationWorkerConfig) *MigrationWorker {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	w := &MigrationWorker{
		runner: runner,
		sweep:  cfg.DebtSweepInterval,
		logger: cfg.Logger,
		status: make(map[string]*MigrationJob),
	}
	w.queue = jobs.NewQueue("semester-migration", w.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.BufferSize,
		MaxRetries: -1,
		Logger:     cfg.Logger,
	})
	return w
}

// Start launches the queue and, when configured, the periodic debt sweep.
func (w *MigrationWorker) Start(ctx context.Context) {
	w.queue.Start(ctx)
	if w.sweep <= 0 {
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if _, err := w.EnqueueDebtSweep(); err != nil {
					w.logger.Warn("failed to schedule debt sweep", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the sweep and the queue. A run in progress is cancelled between students.
func (w *MigrationWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.queue.Stop()
}

// Enqueue schedules a migration of every eligible student into target.
func (w *MigrationWorker) Enqueue(target string) (*MigrationJob, error) {
	if !ValidSemesterName(target) {
		return nil, appErrors.ErrSemesterNameInvalid
	}
	return w.enqueue(JobTypeSemesterMigration, target)
}

// EnqueueDebtSweep schedules a pass over indebted students.
func (w *MigrationWorker) EnqueueDebtSweep() (*MigrationJob, error) {
	return w.enqueue(JobTypeDebtClosure, "")
}

func (w *MigrationWorker) enqueue(jobType, target string) (*MigrationJob, error) {
	job := &MigrationJob{
		ID:         uuid.NewString(),
		Type:       jobType,
		Target:     target,
		State:      JobStateQueued,
		EnqueuedAt: time.Now().UTC(),
	}
	w.track(job)
	queued := *job

	if err := w.queue.Enqueue(jobs.Job{ID: job.ID, Type: jobType, Payload: target, Enqueued: job.EnqueuedAt}); err != nil {
		w.forget(job.ID)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "migration queue is full")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue migration")
	}
	w.logger.Info("migration enqueued", zap.String("job_id", job.ID), zap.String("type", jobType), zap.String("target", target))
	return &queued, nil
}

// Status returns the state of a tracked job.
func (w *MigrationWorker) Status(id string) (*MigrationJob, error) {
	job := w.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "migration job not found")
	}
	return job, nil
}

// List returns tracked jobs, newest first.
func (w *MigrationWorker) List() []MigrationJob {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make([]MigrationJob, 0, len(w.status))
	for _, job := range w.status {
		result = append(result, *job)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnqueuedAt.After(result[j].EnqueuedAt) })
	return result
}

func (w *MigrationWorker) handle(ctx context.Context, job jobs.Job) error {
	w.update(job.ID, func(j *MigrationJob) {
		now := time.Now().UTC()
		j.State = JobStateRunning
		j.StartedAt = &now
	})

	var (
		summary *MigrationSummary
		err     error
	)
	switch job.Type {
	case JobTypeSemesterMigration:
		target, _ := job.Payload.(string)
		summary, err = w.runner.Run(ctx, target)
	case JobTypeDebtClosure:
		summary, err = w.runner.RunDebtors(ctx)
	default:
		err = fmt.Errorf("unknown migration job type %q", job.Type)
	}

	w.update(job.ID, func(j *MigrationJob) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		j.Summary = summary
		if err != nil {
			j.State = JobStateFailed
			j.Error = appErrors.FromError(err).Message
			return
		}
		j.State = JobStateFinished
	})
	return err
}

func (w *MigrationWorker) track(job *MigrationJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status[job.ID] = job
	if len(w.status) <= maxTrackedJobs {
		return
	}
	var oldest *MigrationJob
	for _, j := range w.status {
		if j.FinishedAt == nil {
			continue
		}
		if oldest == nil || j.EnqueuedAt.Before(oldest.EnqueuedAt) {
			oldest = j
		}
	}
	if oldest != nil {
		delete(w.status, oldest.ID)
	}
}

func (w *MigrationWorker) forget(id string) {
	w.mu.Lock()
	delete(w.status, id)
	w.mu.Unlock()
}

func (w *MigrationWorker) update(id string, fn func(*MigrationJob)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if job, ok := w.status[id]; ok {
		fn(job)
	}
}

func (w *MigrationWorker) snapshot(id string) *MigrationJob {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.status[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
