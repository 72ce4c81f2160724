package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/academic-program/reporting-api/internal/syncer"
)

// SyncQueueName is the backlite queue that executes started sync runs.
const SyncQueueName = "sync_universities"

// SyncTaskDeadline is the deadline backlite attaches to a sync task. The
// processor detaches from it, so a sync is never cancelled by the queue; the
// value only has to be non-zero. ReleaseAfter is kept above it.
const SyncTaskDeadline = 24 * time.Hour

// SyncExecutor runs the pipeline for an already started run.
type SyncExecutor interface {
	ExecuteSync(ctx context.Context, runID uint, createSnapshot bool) error
}

// SyncUniversitiesTask executes one sync run created by the orchestrator.
type SyncUniversitiesTask struct {
	RunID          uint `json:"run_id"`
	CreateSnapshot bool `json:"create_snapshot"`
}

// Config returns the queue configuration for sync tasks. A failed run is
// recorded on the run log and never retried by the queue.
func (t SyncUniversitiesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        SyncQueueName,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     SyncTaskDeadline,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncUniversitiesProcessor creates a processor function for SyncUniversitiesTask.
// Runs execute without a deadline and are not cancelled by queue shutdown, the
// same as runs started by syncer.GoDispatcher.
func SyncUniversitiesProcessor(executor SyncExecutor) backlite.QueueProcessor[SyncUniversitiesTask] {
	return func(ctx context.Context, task SyncUniversitiesTask) error {
		if executor == nil {
			return fmt.Errorf("sync executor not configured")
		}

		// The outcome is already on the run log; returning it only marks the task failed.
		if err := executor.ExecuteSync(context.WithoutCancel(ctx), task.RunID, task.CreateSnapshot); err != nil {
			return fmt.Errorf("sync run #%d: %w", task.RunID, err)
		}

		log.Printf("[TASK] Sync run #%d completed", task.RunID)
		return nil
	}
}

// NewSyncUniversitiesQueue creates a backlite queue for sync tasks.
func NewSyncUniversitiesQueue(executor SyncExecutor) backlite.Queue {
	return backlite.NewQueue(SyncUniversitiesProcessor(executor))
}

// Dispatcher enqueues sync jobs on the task queue.
type Dispatcher struct {
	client *Client
}

// NewDispatcher creates a dispatcher backed by client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Dispatch persists the job; a worker picks it up asynchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, job syncer.Job) error {
	ids, err := d.client.Add(SyncUniversitiesTask{
		RunID:          job.RunID,
		CreateSnapshot: job.CreateSnapshot,
	}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("failed to enqueue sync run #%d: %w", job.RunID, err)
	}
	if len(ids) > 0 {
		log.Printf("[TASK] Enqueued sync run #%d as task %s", job.RunID, ids[0])
	}
	return nil
}
