package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	middleware "github.com/welcomechat/ingest/internal/api/middlewares"
	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/core/ingestion"
	"github.com/welcomechat/ingest/internal/models"
	"github.com/welcomechat/ingest/internal/services"
)

type ChatHandler struct {
	dbclient core.DbClient
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
	guard    *services.QueryGuard
	activity ingestion.ActivityLogger
}

func NewChatHandler(db core.DbClient, emb core.EmbeddingProvider, llm core.LLMProvider,
	guard *services.QueryGuard, activity ingestion.ActivityLogger) *ChatHandler {
	return &ChatHandler{dbclient: db, embedder: emb, llm: llm, guard: guard, activity: activity}
}

type chatRequest struct {
	Query string `json:"query"`
}

// Query answers a question from the client's knowledge base.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := middleware.ClientID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", 400)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", 400)
		return
	}

	if kw, allowed := h.guard.Check(req.Query); !allowed {
		h.activity.Log(ctx, clientID, models.ActivityChatInteraction,
			"Chat query blocked",
			map[string]any{"blocked": true, "matched_keyword": kw})
		json.NewEncoder(w).Encode(map[string]string{
			"answer": "I can't help with that. Please ask a question about our products or services.",
		})
		return
	}

	// Embed the query
	vecs, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), 500)
		return
	}
	queryVec := vecs[0]

	// Retrieve top chunks across the client's knowledge base
	chunks, err := h.dbclient.SearchKnowledgeChunks(ctx, clientID, queryVec, 5)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), 500)
		return
	}

	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.Text)
		sb.WriteString("\n---\n")
	}

	systemPrompt := "You are a helpful assistant answering based only on the provided knowledge base content. If unsure, say 'I cannot find this in the knowledge base.'"
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", sb.String(), req.Query)

	answer, err := h.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		http.Error(w, fmt.Sprintf("LLM failed: %v", err), 500)
		return
	}

	h.activity.Log(ctx, clientID, models.ActivityChatInteraction,
		"Chat query answered",
		map[string]any{"chunks_used": len(chunks)})

	json.NewEncoder(w).Encode(map[string]string{
		"answer": answer,
	})
}
