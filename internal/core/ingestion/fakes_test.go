package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/welcomechat/ingest/internal/models"
)

// fakeDB is an in-memory core.DbClient for pipeline and syncer tests.
type fakeDB struct {
	mu         sync.Mutex
	jobs       map[string]*models.IngestionJob
	content    []*models.ContentRecord
	chunks     []models.KnowledgeChunk
	activities []models.ActivityLogEntry

	failCreateContent bool
	failInsertChunks  bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{jobs: make(map[string]*models.IngestionJob)}
}

func (f *fakeDB) CreateClientUser(ctx context.Context, user *models.ClientUser) error {
	return nil
}

func (f *fakeDB) GetClientUserByEmail(ctx context.Context, email string) (*models.ClientUser, error) {
	return nil, nil
}

func (f *fakeDB) CreateJob(ctx context.Context, job *models.IngestionJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeDB) GetJob(ctx context.Context, id string) (*models.IngestionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (f *fakeDB) ListJobsByClient(ctx context.Context, clientID string) ([]models.IngestionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IngestionJob
	for _, j := range f.jobs {
		if j.ClientID == clientID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeDB) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found: " + id)
	}
	j.Status = status
	j.Error = errText
	return nil
}

func (f *fakeDB) IncrementJobRetry(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found: " + id)
	}
	j.RetryCount++
	return nil
}

func (f *fakeDB) CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateContent {
		return errors.New("content insert refused")
	}
	cp := *rec
	f.content = append(f.content, &cp)
	return nil
}

func (f *fakeDB) GetContentRecord(ctx context.Context, id string) (*models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.content {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) ListContentByClient(ctx context.Context, clientID string) ([]models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ContentRecord
	for _, rec := range f.content {
		if rec.ClientID == clientID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeDB) DeleteContentRecord(ctx context.Context, clientID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.content {
		if rec.ID == id && rec.ClientID == clientID {
			f.content = append(f.content[:i], f.content[i+1:]...)
			return nil
		}
	}
	return errors.New("content not found: " + id)
}

func (f *fakeDB) InsertKnowledgeChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertChunks {
		return errors.New("chunk insert refused")
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeDB) SearchKnowledgeChunks(ctx context.Context, clientID string, queryVec []float32, limit int) ([]models.KnowledgeChunk, error) {
	return nil, nil
}

func (f *fakeDB) InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, *entry)
	return nil
}

func (f *fakeDB) ListActivitiesByClient(ctx context.Context, clientID string, limit int) ([]models.ActivityLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ActivityLogEntry(nil), f.activities...), nil
}

func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) jobStatus(id string) models.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[id]; ok {
		return j.Status
	}
	return ""
}

// fakeActivity records audit calls in memory.
type fakeActivity struct {
	mu      sync.Mutex
	entries []models.ActivityLogEntry
}

func (f *fakeActivity) Log(ctx context.Context, clientID string, typ models.ActivityType, description string, metadata map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, models.ActivityLogEntry{
		ClientID:    clientID,
		Type:        typ,
		Description: description,
		Metadata:    metadata,
	})
}

func (f *fakeActivity) types() []models.ActivityType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ActivityType, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Type
	}
	return out
}

// fakeEmbedder returns a constant vector per text, or fails on demand.
type fakeEmbedder struct {
	fail  bool
	calls int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedder unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}
