package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/welcomechat/ingest/internal/api/middlewares"
	"github.com/welcomechat/ingest/internal/core"
)

type JobHandler struct {
	dbclient core.DbClient
}

func NewJobHandler(dbclient core.DbClient) *JobHandler {
	return &JobHandler{dbclient: dbclient}
}

// GetJob returns one job for status polling.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	jobID := chi.URLParam(r, "jobID")
	job, err := h.dbclient.GetJob(r.Context(), jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if job == nil || job.ClientID != clientID {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	jobs, err := h.dbclient.ListJobsByClient(r.Context(), clientID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}
