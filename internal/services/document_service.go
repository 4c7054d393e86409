package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/core/ingestion"
	"github.com/welcomechat/ingest/internal/models"
)

// DocumentService handles file uploads: object storage write, job
// creation, and background local extraction. Link-based sources go
// through the ingestion pipeline instead.
type DocumentService struct {
	db        core.DbClient
	storage   core.ObjectClient
	bucket    string
	tracker   *ingestion.Tracker
	extractor *ingestion.UploadExtractor
	syncer    *ingestion.ContentSyncer
	activity  ingestion.ActivityLogger
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, bucket string,
	tracker *ingestion.Tracker, extractor *ingestion.UploadExtractor,
	syncer *ingestion.ContentSyncer, activity ingestion.ActivityLogger) *DocumentService {
	return &DocumentService{
		db: db, storage: storage, bucket: bucket,
		tracker: tracker, extractor: extractor, syncer: syncer, activity: activity,
	}
}

// UploadAndIngest stores the file in S3, creates a pending job, and
// extracts in the background. The returned job is pending; callers poll
// it like any link ingestion.
func (s *DocumentService) UploadAndIngest(ctx context.Context, clientID, agentName, filename, contentType string, file io.Reader) (*models.IngestionJob, error) {
	docID := uuid.NewString()
	key := s.objectKey(clientID, docID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	now := time.Now()
	job := &models.IngestionJob{
		ID:          docID,
		ClientID:    clientID,
		AgentName:   agentName,
		DocumentURL: url,
		SourceKind:  kindFromFilename(filename),
		Method:      models.MethodDirectFetch,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tracker.RecordStart(ctx, job)

	s.activity.Log(ctx, clientID, models.ActivityDocumentUploaded,
		fmt.Sprintf("Document uploaded: %s", filename),
		map[string]any{"file_name": filename, "job_id": docID, "storage_url": url})

	go func() {
		// Detached from the request context; uploads keep processing
		// after the HTTP response is sent.
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.processUpload(bg, job, key, contentType, filename); err != nil {
			log.Printf("documents: upload job %s failed: %v", docID, err)
		}
	}()

	return job, nil
}

func (s *DocumentService) processUpload(ctx context.Context, job *models.IngestionJob, key, contentType, filename string) error {
	fail := func(cause error) error {
		if err := s.tracker.UpdateStatus(ctx, job.ID, models.JobFailed, cause.Error()); err != nil {
			log.Printf("documents: failed to mark job %s failed: %v", job.ID, err)
		}
		s.activity.Log(ctx, job.ClientID, models.ActivityProcessingFailed,
			fmt.Sprintf("Document processing failed: %s", filename),
			map[string]any{"job_id": job.ID, "error": cause.Error()})
		return cause
	}

	if err := s.tracker.UpdateStatus(ctx, job.ID, models.JobProcessing, ""); err != nil {
		return err
	}
	s.activity.Log(ctx, job.ClientID, models.ActivityProcessingStarted,
		fmt.Sprintf("Processing started for %s", filename),
		map[string]any{"job_id": job.ID})

	rc, err := s.storage.GetObjectReader(ctx, s.bucket, key)
	if err != nil {
		return fail(fmt.Errorf("get object reader: %w", err))
	}
	defer rc.Close()

	ext, err := s.extractor.Extract(ctx, rc, contentType)
	if err != nil {
		return fail(err)
	}

	rec := &models.ContentRecord{
		ClientID:   job.ClientID,
		AgentName:  job.AgentName,
		Content:    ext.Content,
		URL:        job.DocumentURL,
		SourceKind: job.SourceKind,
		Metadata:   ext.Metadata,
	}
	if _, err := s.syncer.Persist(ctx, rec); err != nil {
		return fail(err)
	}

	if err := s.tracker.UpdateStatus(ctx, job.ID, models.JobCompleted, ""); err != nil {
		return err
	}
	s.activity.Log(ctx, job.ClientID, models.ActivityProcessingCompleted,
		fmt.Sprintf("Document processed: %s", filename),
		map[string]any{
			"job_id":          job.ID,
			"character_count": ext.Metadata.CharacterCount,
			"word_count":      ext.Metadata.WordCount,
		})
	return nil
}

// objectKey creates a consistent S3 key layout.
func (s *DocumentService) objectKey(clientID, docID, filename string) string {
	filename = strings.TrimSpace(filepath.Base(filename))
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("clients", clientID, "documents", docID, filename)
}

func kindFromFilename(filename string) models.SourceKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.SourcePDF
	case ".xls", ".xlsx":
		return models.SourceExcel
	case ".doc", ".docx", ".txt", ".md", ".rtf":
		return models.SourceDocument
	default:
		return models.SourceOther
	}
}
