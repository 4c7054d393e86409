package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/welcomechat/ingest/internal/api/middlewares"
	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/core/ingestion"
	"github.com/welcomechat/ingest/internal/models"
	"github.com/welcomechat/ingest/internal/services"
)

type DocumentHandler struct {
	dbclient  core.DbClient
	documents *services.DocumentService
	activity  ingestion.ActivityLogger
}

func NewDocumentHandler(dbclient core.DbClient, documents *services.DocumentService, activity ingestion.ActivityLogger) *DocumentHandler {
	return &DocumentHandler{dbclient: dbclient, documents: documents, activity: activity}
}

// UploadDocument handles file upload, job creation, and background
// extraction. Responds 202 with the pending job.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.ParseMultipartForm(32 << 20) // 32 MB in memory, rest spills to disk

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	agentName := r.FormValue("agentName")
	if agentName == "" {
		http.Error(w, "agentName is required", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	job, err := h.documents.UploadAndIngest(r.Context(), clientID, agentName, header.Filename, contentType, file)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

// GetDocuments lists the client's stored content records.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.dbclient.ListContentByClient(r.Context(), clientID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// DeleteLink removes a stored content record and its knowledge chunks.
func (h *DocumentHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.dbclient.GetContentRecord(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.ClientID != clientID {
		http.Error(w, "link not found", http.StatusNotFound)
		return
	}

	if err := h.dbclient.DeleteContentRecord(r.Context(), clientID, id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.activity.Log(r.Context(), clientID, models.ActivityDocumentLinkDeleted,
		fmt.Sprintf("Document link deleted: %s", rec.URL),
		map[string]any{"content_id": id, "url": rec.URL})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
