package handlers

import (
	"encoding/json"
	"net/http"

	middleware "github.com/welcomechat/ingest/internal/api/middlewares"
	"github.com/welcomechat/ingest/internal/core/ingestion"
	"github.com/welcomechat/ingest/internal/models"
)

type IngestHandler struct {
	pipeline *ingestion.Pipeline
}

func NewIngestHandler(pipeline *ingestion.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

type ingestRequest struct {
	DocumentURL  string `json:"documentUrl"`
	DocumentType string `json:"documentType"`
	AgentName    string `json:"agentName"`
	DocumentID   string `json:"documentId,omitempty"`
	UseCrawler   bool   `json:"useCrawler,omitempty"`
}

type ingestResponse struct {
	Success  bool              `json:"success"`
	JobID    string            `json:"jobId"`
	Status   models.JobStatus  `json:"status"`
	Warnings []string          `json:"warnings,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Ingest accepts a link submission, validates it, and queues a job.
// Processing is asynchronous; the caller polls the job endpoint.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	kind := models.SourceKind(req.DocumentType)
	if kind == "" {
		kind = models.SourceWebsiteURL
	}

	job, validation, err := h.pipeline.Submit(r.Context(), ingestion.Request{
		DocumentURL: req.DocumentURL,
		SourceKind:  kind,
		ClientID:    clientID,
		AgentName:   req.AgentName,
		DocumentID:  req.DocumentID,
		UseCrawler:  req.UseCrawler,
	})
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ingestResponse{Success: false, Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ingestResponse{
		Success:  true,
		JobID:    job.ID,
		Status:   models.JobPending,
		Warnings: validation.Warnings,
	})
}
