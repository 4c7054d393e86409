package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/models"
)

// Chunking constants for the assistant knowledge base. Consecutive
// chunks overlap so retrieval does not lose context at boundaries.
const (
	chunkSize    = 8000
	chunkOverlap = 200
	embedBatch   = 16
)

// chunk is the internal representation passed through the sync pipeline.
type chunk struct {
	Pos  int
	Text string
}

// ContentSyncer persists extracted content and pushes it into the
// per-client assistant knowledge base. The content write is the primary
// obligation and must succeed; the knowledge-base push is best-effort
// and its failure leaves the content record in place.
type ContentSyncer struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	activity ActivityLogger
}

func NewContentSyncer(db core.DbClient, embedder core.EmbeddingProvider, activity ActivityLogger) *ContentSyncer {
	return &ContentSyncer{db: db, embedder: embedder, activity: activity}
}

// Persist writes the content record, then attempts the assistant sync.
// A sync failure is recorded as its own activity entry and does not
// surface to the caller: partial success is an accepted outcome.
func (s *ContentSyncer) Persist(ctx context.Context, rec *models.ContentRecord) (*models.ContentRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.db.CreateContentRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("store content record: %w", err)
	}

	if err := s.syncToAssistant(ctx, rec); err != nil {
		s.activity.Log(ctx, rec.ClientID, models.ActivityAssistantSyncFailed,
			fmt.Sprintf("Failed to sync content to assistant for %s", rec.URL),
			map[string]any{
				"content_id": rec.ID,
				"url":        rec.URL,
				"error":      err.Error(),
			})
	}

	return rec, nil
}

// syncToAssistant runs chunk -> embed -> insert as an errgroup pipeline
// with backpressure between the stages.
func (s *ContentSyncer) syncToAssistant(ctx context.Context, rec *models.ContentRecord) error {
	g, gctx := errgroup.WithContext(ctx)

	chunks := s.streamChunks(gctx, g, rec.Content)

	g.Go(func() error {
		return s.embedAndInsert(gctx, rec, chunks)
	})

	return g.Wait()
}

// streamChunks slices the content into fixed-size chunks with overlap
// and emits them on a channel; downstream backpressure applies.
func (s *ContentSyncer) streamChunks(ctx context.Context, g *errgroup.Group, content string) <-chan chunk {
	out := make(chan chunk, 8)

	g.Go(func() error {
		defer close(out)

		pos := 0
		for start := 0; start < len(content); {
			end := start + chunkSize
			if end > len(content) {
				end = len(content)
			}

			select {
			case out <- chunk{Pos: pos, Text: content[start:end]}:
			case <-ctx.Done():
				return ctx.Err()
			}
			pos++

			if end == len(content) {
				break
			}
			start = end - chunkOverlap
		}
		return nil
	})

	return out
}

// embedAndInsert consumes chunks, embeds them in batches, and writes
// knowledge rows. Batching bounds memory and keeps embedding calls
// amortized.
func (s *ContentSyncer) embedAndInsert(ctx context.Context, rec *models.ContentRecord, in <-chan chunk) error {
	batch := make([]chunk, 0, embedBatch)

	flush := func(items []chunk) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for i := range items {
			texts[i] = items[i].Text
		}

		vecs, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items))
		}

		rows := make([]models.KnowledgeChunk, len(items))
		for i := range items {
			rows[i] = models.KnowledgeChunk{
				ID:        uuid.NewString(),
				ContentID: rec.ID,
				ClientID:  rec.ClientID,
				Position:  items[i].Pos,
				Text:      items[i].Text,
				Embedding: vecs[i],
				CreatedAt: time.Now(),
			}
		}
		if err := s.db.InsertKnowledgeChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert knowledge chunks: %w", err)
		}
		return nil
	}

	for ch := range in {
		batch = append(batch, ch)
		if len(batch) >= embedBatch {
			if err := flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return flush(batch)
}
