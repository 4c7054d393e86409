package core

import (
	"context"
	"io"

	"github.com/welcomechat/ingest/internal/models"
)

// DbClient defines all persistence operations the services need. It
// abstracts Postgres/pgvector so higher layers never depend on a
// specific DB, and so the pipeline can be tested against an in-memory
// fake instead of global state.
type DbClient interface {
	CreateClientUser(ctx context.Context, user *models.ClientUser) error
	GetClientUserByEmail(ctx context.Context, email string) (*models.ClientUser, error)

	// Ingestion jobs. Jobs are append-only identities: updates touch
	// status, error and retry count but rows are never removed.
	CreateJob(ctx context.Context, job *models.IngestionJob) error
	GetJob(ctx context.Context, id string) (*models.IngestionJob, error)
	ListJobsByClient(ctx context.Context, clientID string) ([]models.IngestionJob, error)
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errText string) error
	IncrementJobRetry(ctx context.Context, id string) error

	// Extracted content.
	CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error
	GetContentRecord(ctx context.Context, id string) (*models.ContentRecord, error)
	ListContentByClient(ctx context.Context, clientID string) ([]models.ContentRecord, error)
	DeleteContentRecord(ctx context.Context, clientID, id string) error

	// Assistant knowledge base (secondary sync target).
	InsertKnowledgeChunks(ctx context.Context, chunks []models.KnowledgeChunk) error
	SearchKnowledgeChunks(ctx context.Context, clientID string, queryVec []float32, limit int) ([]models.KnowledgeChunk, error)

	// Activity audit trail. Append-only; the pipeline never reads it back.
	InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error
	ListActivitiesByClient(ctx context.Context, clientID string, limit int) ([]models.ActivityLogEntry, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so AWS can be replaced with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// EmbeddingProvider turns text into vectors for the knowledge base.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider generates agent answers from retrieved context.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
