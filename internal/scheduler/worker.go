// Package scheduler drains the SQLite job queue. Its only job type
// today is workflow_resume: re-invoking a workflow instance after a
// wait step's duration has elapsed.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/relay/internal/engine"
	"github.com/kalambet/relay/internal/storage"
)

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// Executor advances a workflow instance by one step.
type Executor interface {
	ExecuteNext(ctx context.Context, instanceID string) (engine.StepResult, error)
}

// Worker processes workflow_resume jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	executor Executor
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to one second.
func NewWorker(store JobStore, executor Executor, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		store:    store,
		executor: executor,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single workflow_resume job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{storage.JobWorkflowResume})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload engine.ResumePayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	res, err := w.executor.ExecuteNext(ctx, payload.InstanceID)
	// An instance paused or completed while the job was queued is not a
	// fault; the job is spent either way.
	if errors.Is(err, engine.ErrTerminalState) {
		w.logger.Info("resume skipped, instance already terminal", "instance", payload.InstanceID)
		return nil
	}
	if errors.Is(err, engine.ErrNoStep) {
		w.logger.Warn("resume skipped, no step at instance cursor", "instance", payload.InstanceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resuming instance %s: %w", payload.InstanceID, err)
	}

	w.logger.Info("instance resumed",
		"instance", payload.InstanceID,
		"step", res.Step.StepNumber,
		"succeeded", res.Succeeded,
	)
	return nil
}
