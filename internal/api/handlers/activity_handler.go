package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	middleware "github.com/welcomechat/ingest/internal/api/middlewares"
	"github.com/welcomechat/ingest/internal/core"
)

type ActivityHandler struct {
	dbclient core.DbClient
}

func NewActivityHandler(dbclient core.DbClient) *ActivityHandler {
	return &ActivityHandler{dbclient: dbclient}
}

// ListActivities returns the client's recent activity feed.
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.dbclient.ListActivitiesByClient(r.Context(), clientID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
