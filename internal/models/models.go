package models

import (
	"time"
)

// SourceKind classifies where a document comes from.
type SourceKind string

const (
	SourceWebsiteURL  SourceKind = "website_url"
	SourceGoogleDrive SourceKind = "google_drive"
	SourceGoogleDoc   SourceKind = "google_doc"
	SourceGoogleSheet SourceKind = "google_sheet"
	SourcePDF         SourceKind = "pdf"
	SourceExcel       SourceKind = "excel"
	SourceDocument    SourceKind = "document"
	SourceOther       SourceKind = "other"
)

// IsGoogle reports whether the kind is one of the Drive-hosted families.
func (k SourceKind) IsGoogle() bool {
	return k == SourceGoogleDrive || k == SourceGoogleDoc || k == SourceGoogleSheet
}

// ProcessingMethod selects which extraction backend handles a source.
type ProcessingMethod string

const (
	MethodDirectFetch ProcessingMethod = "direct-fetch"
	MethodRemoteParse ProcessingMethod = "remote-parse"
)

// JobStatus is the lifecycle state of an ingestion job.
// Transitions are strictly pending -> processing -> completed|failed.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// IngestionJob is the durable record of one attempt to acquire and
// normalize content from a single external source for a single client.
// Rows are never deleted; a re-ingestion of the same source creates a
// new job with a fresh ID.
type IngestionJob struct {
	ID          string           `db:"id" json:"id"`
	ClientID    string           `db:"client_id" json:"client_id"`
	AgentName   string           `db:"agent_name" json:"agent_name"`
	DocumentURL string           `db:"document_url" json:"document_url"`
	SourceKind  SourceKind       `db:"source_kind" json:"source_kind"`
	Method      ProcessingMethod `db:"method" json:"method"`
	Status      JobStatus        `db:"status" json:"status"`
	Error       string           `db:"error" json:"error,omitempty"`
	RetryCount  int              `db:"retry_count" json:"retry_count"`
	StartedAt   time.Time        `db:"started_at" json:"started_at"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// ContentMetadata is the structured metadata stored alongside extracted
// content. Remote parsers contribute word/char counts; the rest is
// computed locally.
type ContentMetadata struct {
	Title            string `json:"title,omitempty"`
	ProcessingMethod string `json:"processing_method"`
	DurationMS       int64  `json:"processing_duration_ms"`
	WordCount        int    `json:"word_count"`
	CharacterCount   int    `json:"character_count"`
	RetriesUsed      int    `json:"retries_used,omitempty"`
	Truncated        bool   `json:"truncated,omitempty"`
}

// ContentRecord is the persisted, normalized text output of a successful
// ingestion job. One record per successful job; failed jobs produce none.
type ContentRecord struct {
	ID         string          `db:"id" json:"id"`
	ClientID   string          `db:"client_id" json:"client_id"`
	AgentName  string          `db:"agent_name" json:"agent_name"`
	Content    string          `db:"content" json:"content"`
	URL        string          `db:"url" json:"url"`
	SourceKind SourceKind      `db:"source_kind" json:"source_kind"`
	Metadata   ContentMetadata `db:"metadata" json:"metadata"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// KnowledgeChunk is one embedded slice of a content record, pushed into
// the per-client assistant knowledge base during the secondary sync.
type KnowledgeChunk struct {
	ID        string    `db:"id" json:"id"`
	ContentID string    `db:"content_id" json:"content_id"`
	ClientID  string    `db:"client_id" json:"client_id"`
	Position  int       `db:"position" json:"position"`
	Text      string    `db:"text" json:"text"`
	Embedding []float32 `db:"embedding" json:"-"` // pgvector column
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityType is the closed set of auditable pipeline events.
type ActivityType string

const (
	ActivityDocumentLinkAdded   ActivityType = "document_link_added"
	ActivityDocumentLinkDeleted ActivityType = "document_link_deleted"
	ActivityDocumentUploaded    ActivityType = "document_uploaded"
	ActivityProcessingStarted   ActivityType = "document_processing_started"
	ActivityProcessingCompleted ActivityType = "document_processing_completed"
	ActivityProcessingFailed    ActivityType = "document_processing_failed"
	ActivityAssistantSyncFailed ActivityType = "assistant_sync_failed"
	ActivityChatInteraction     ActivityType = "chat_interaction"
)

// ActivityLogEntry is one append-only audit row, consumed by dashboards.
// The pipeline writes these and never reads them back.
type ActivityLogEntry struct {
	ID          string         `db:"id" json:"id"`
	ClientID    string         `db:"client_id" json:"client_id"`
	Type        ActivityType   `db:"activity_type" json:"activity_type"`
	Description string         `db:"description" json:"description"`
	Metadata    map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// ClientUser is an authenticated dashboard user scoped to one client.
type ClientUser struct {
	ID           string    `db:"id" json:"id"`
	ClientID     string    `db:"client_id" json:"client_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
