package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/welcomechat/ingest/internal/models"
)

// JobStore is the slice of persistence the tracker needs. Job state
// lives behind this injected interface, never in package-level maps, so
// it survives restarts and tests run against a fake.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.IngestionJob) error
	GetJob(ctx context.Context, id string) (*models.IngestionJob, error)
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errText string) error
	IncrementJobRetry(ctx context.Context, id string) error
}

// Tracker maintains the ingestion job lifecycle. It enforces the
// monotonic state machine pending -> processing -> completed|failed:
// an update that would move a job backwards is refused.
type Tracker struct {
	store JobStore
}

func NewTracker(store JobStore) *Tracker {
	return &Tracker{store: store}
}

// RecordStart creates the pending job row. A write error is logged but
// not returned: the caller's request was already accepted, and the
// pipeline proceeding without its audit row beats failing the caller.
func (t *Tracker) RecordStart(ctx context.Context, job *models.IngestionJob) {
	job.Status = models.JobPending
	job.StartedAt = time.Now()
	if err := t.store.CreateJob(ctx, job); err != nil {
		log.Printf("tracker: failed to record job %s start: %v", job.ID, err)
	}
}

// UpdateStatus applies one transition. Setting the current status again
// is a data-equality no-op. Any transition out of order (terminal to
// anything, processing back to pending, pending straight to terminal
// states is allowed only via processing) returns an error.
func (t *Tracker) UpdateStatus(ctx context.Context, jobID string, status models.JobStatus, errText string) error {
	current, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if current == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if current.Status == status {
		// No-op by data equality, not specially short-circuited: the
		// store still sees the write, it just changes nothing.
		return t.store.UpdateJobStatus(ctx, jobID, status, errText)
	}

	if !validTransition(current.Status, status) {
		return fmt.Errorf("invalid job transition %s -> %s for %s", current.Status, status, jobID)
	}

	return t.store.UpdateJobStatus(ctx, jobID, status, errText)
}

// RecordRetry increments the retry count of a job that is still
// processing. Failures are logged, not surfaced; losing a retry tick is
// not worth aborting the attempt loop.
func (t *Tracker) RecordRetry(ctx context.Context, jobID string) {
	if err := t.store.IncrementJobRetry(ctx, jobID); err != nil {
		log.Printf("tracker: failed to record retry for job %s: %v", jobID, err)
	}
}

func validTransition(from, to models.JobStatus) bool {
	switch from {
	case models.JobPending:
		return to == models.JobProcessing
	case models.JobProcessing:
		return to == models.JobCompleted || to == models.JobFailed
	default:
		return false
	}
}
