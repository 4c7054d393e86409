package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/welcomechat/ingest/internal/models"
)

// Pipeline drives one ingestion end to end: validate, select a backend,
// extract, persist, sync, and record every transition on the job row
// and the activity trail. Submissions are accepted synchronously and
// processed on a bounded worker queue; callers observe progress by
// polling the job.
type Pipeline struct {
	tracker   *Tracker
	validator *Validator
	website   *WebsiteExtractor
	remote    *RemoteParseExtractor
	crawl     *CrawlExtractor
	syncer    *ContentSyncer
	activity  ActivityLogger

	jobs chan queuedJob
}

type queuedJob struct {
	jobID string
	req   Request
}

// NewPipeline wires the pipeline with a bounded job queue (64). crawl
// may be nil when no crawl engine is configured; UseCrawler submissions
// then fall back to the single-page fetch.
func NewPipeline(tracker *Tracker, validator *Validator, website *WebsiteExtractor,
	remote *RemoteParseExtractor, crawl *CrawlExtractor, syncer *ContentSyncer,
	activity ActivityLogger) *Pipeline {
	return &Pipeline{
		tracker:   tracker,
		validator: validator,
		website:   website,
		remote:    remote,
		crawl:     crawl,
		syncer:    syncer,
		activity:  activity,
		jobs:      make(chan queuedJob, 64),
	}
}

// Start runs worker goroutines reading from the job queue.
func (p *Pipeline) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("pipeline: worker %d shutting down", w)
					return
				case q := <-p.jobs:
					log.Printf("pipeline: worker %d processing job %s", w, q.jobID)
					if err := p.Process(ctx, q.jobID, q.req); err != nil {
						log.Printf("pipeline: job %s failed: %v", q.jobID, err)
					}
				}
			}
		}(w)
	}
}

// Submit validates the request and, if it passes, creates a pending job
// and queues it for processing. Hard validation failures reject the
// submission outright; no job is created for them. Soft restrictions
// come back as warnings on the validation result and do not block.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*models.IngestionJob, *ValidationResult, error) {
	if req.DocumentURL == "" {
		return nil, nil, fmt.Errorf("documentUrl is required")
	}
	if req.ClientID == "" {
		return nil, nil, fmt.Errorf("clientId is required")
	}
	if req.AgentName == "" {
		return nil, nil, fmt.Errorf("agentName is required")
	}

	validation, err := p.validator.Validate(ctx, req.DocumentURL, req.SourceKind)
	if err != nil {
		return nil, nil, err
	}

	jobID := req.DocumentID
	if jobID == "" {
		jobID = uuid.NewString()
	}

	now := time.Now()
	job := &models.IngestionJob{
		ID:          jobID,
		ClientID:    req.ClientID,
		AgentName:   req.AgentName,
		DocumentURL: req.DocumentURL,
		SourceKind:  req.SourceKind,
		Method:      SelectMethod(req.SourceKind, req.DocumentURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.tracker.RecordStart(ctx, job)

	p.activity.Log(ctx, req.ClientID, models.ActivityDocumentLinkAdded,
		fmt.Sprintf("Document link added: %s", req.DocumentURL),
		map[string]any{
			"url":      req.DocumentURL,
			"type":     string(req.SourceKind),
			"job_id":   jobID,
			"warnings": validation.Warnings,
		})

	p.jobs <- queuedJob{jobID: jobID, req: req}

	return job, validation, nil
}

// Process runs one queued job to a terminal state. Exported so the
// upload path and tests can drive a job synchronously.
func (p *Pipeline) Process(ctx context.Context, jobID string, req Request) error {
	if err := p.tracker.UpdateStatus(ctx, jobID, models.JobProcessing, ""); err != nil {
		return err
	}
	p.activity.Log(ctx, req.ClientID, models.ActivityProcessingStarted,
		fmt.Sprintf("Processing started for %s", req.DocumentURL),
		map[string]any{"job_id": jobID})

	method := SelectMethod(req.SourceKind, req.DocumentURL)

	ext, err := p.extract(ctx, jobID, req, method)
	if err != nil {
		return p.fail(ctx, jobID, req, err)
	}

	rec := &models.ContentRecord{
		ClientID:   req.ClientID,
		AgentName:  req.AgentName,
		Content:    ext.Content,
		URL:        req.DocumentURL,
		SourceKind: req.SourceKind,
		Metadata:   ext.Metadata,
	}
	if _, err := p.syncer.Persist(ctx, rec); err != nil {
		return p.fail(ctx, jobID, req, err)
	}

	if err := p.tracker.UpdateStatus(ctx, jobID, models.JobCompleted, ""); err != nil {
		return err
	}
	p.activity.Log(ctx, req.ClientID, models.ActivityProcessingCompleted,
		fmt.Sprintf("Document processed: %s", req.DocumentURL),
		map[string]any{
			"job_id":            jobID,
			"processing_method": ext.Metadata.ProcessingMethod,
			"character_count":   ext.Metadata.CharacterCount,
			"word_count":        ext.Metadata.WordCount,
		})
	return nil
}

func (p *Pipeline) extract(ctx context.Context, jobID string, req Request, method models.ProcessingMethod) (*Extraction, error) {
	switch method {
	case models.MethodDirectFetch:
		if req.UseCrawler && p.crawl != nil {
			return p.crawl.Extract(ctx, req.DocumentURL)
		}
		return p.website.Extract(ctx, req.DocumentURL)
	case models.MethodRemoteParse:
		return p.remote.Extract(ctx, req.DocumentURL, req.SourceKind, func(int) {
			p.tracker.RecordRetry(ctx, jobID)
		})
	default:
		return nil, fmt.Errorf("unknown processing method %q", method)
	}
}

// fail marks the job failed with the underlying message preserved, logs
// the activity, and returns the original error to the worker.
func (p *Pipeline) fail(ctx context.Context, jobID string, req Request, cause error) error {
	if err := p.tracker.UpdateStatus(ctx, jobID, models.JobFailed, cause.Error()); err != nil {
		log.Printf("pipeline: failed to mark job %s failed: %v", jobID, err)
	}
	p.activity.Log(ctx, req.ClientID, models.ActivityProcessingFailed,
		fmt.Sprintf("Document processing failed: %s", req.DocumentURL),
		map[string]any{"job_id": jobID, "error": cause.Error()})
	return cause
}
