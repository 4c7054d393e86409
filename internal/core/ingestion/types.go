package ingestion

import (
	"context"
	"errors"

	"github.com/welcomechat/ingest/internal/models"
)

// Request is one ingestion submission as received from the API. The
// document ID is a caller-supplied correlation token; every submission
// gets its own job even when the URL was ingested before.
type Request struct {
	DocumentURL string            `json:"documentUrl"`
	SourceKind  models.SourceKind `json:"documentType"`
	ClientID    string            `json:"clientId"`
	AgentName   string            `json:"agentName"`
	DocumentID  string            `json:"documentId"`
	// UseCrawler routes a website_url through the crawl engine (job
	// handle + polling) instead of the single-page direct fetch.
	UseCrawler bool `json:"useCrawler,omitempty"`
}

// Extraction is the normalized output of either backend.
type Extraction struct {
	Content  string
	Metadata models.ContentMetadata
}

// ValidationResult is computed on demand and never persisted; its
// findings feed the acceptance decision. Warnings do not block
// ingestion, a non-nil Err does.
type ValidationResult struct {
	URL            string
	Reachable      bool
	Accessible     bool
	StatusCode     int
	ContentType    string
	Secure         bool
	RobotsAllowed  bool
	DriveViewable  DriveAccess
	Warnings       []string
}

// DriveAccess classifies a Google Drive access probe.
type DriveAccess string

const (
	DrivePublic     DriveAccess = "public"
	DriveRestricted DriveAccess = "restricted"
	DriveUnknown    DriveAccess = "unknown"
)

// ErrNoContent is returned when extraction yields an empty document.
var ErrNoContent = errors.New("no content extracted")

// ErrFetchCanceled marks an extraction aborted by the caller, as opposed
// to a genuine extraction error.
var ErrFetchCanceled = errors.New("fetch canceled by caller")

// RemoteParser is one attempt against the remote parsing service.
// Retrying is the extractor's concern, not the client's.
type RemoteParser interface {
	Parse(ctx context.Context, url string, kind models.SourceKind) (*Extraction, error)
}

// CrawlStatus is the polled state of a crawl job. "scraping" is the
// in-progress value; anything else is terminal.
type CrawlStatus struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// CrawlerAPI is a crawl engine that returns a job handle instead of
// content directly; callers poll until a terminal status.
type CrawlerAPI interface {
	StartCrawl(ctx context.Context, url string) (jobID string, err error)
	CheckCrawl(ctx context.Context, jobID string) (*CrawlStatus, error)
}

// ActivityLogger records audit events. Implementations must swallow
// their own failures; a log write error never fails the pipeline.
type ActivityLogger interface {
	Log(ctx context.Context, clientID string, typ models.ActivityType, description string, metadata map[string]any)
}
