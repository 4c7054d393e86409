package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/welcomechat/ingest/internal/models"
)

func newTestPipeline(db *fakeDB, act *fakeActivity, emb *fakeEmbedder, parser RemoteParser) *Pipeline {
	tracker := NewTracker(db)
	syncer := NewContentSyncer(db, emb, act)
	validator := NewValidator(5 * time.Second)
	website := NewWebsiteExtractor(5*time.Second, 100000)
	remote := NewRemoteParseExtractor(parser, 3, time.Millisecond)
	remote.sleep = func(time.Duration) {}
	return NewPipeline(tracker, validator, website, remote, nil, syncer, act)
}

func serveSite(t *testing.T, page string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// drain pulls the queued job and processes it synchronously.
func drain(t *testing.T, p *Pipeline) error {
	t.Helper()
	select {
	case q := <-p.jobs:
		return p.Process(context.Background(), q.jobID, q.req)
	default:
		t.Fatalf("no job queued")
		return nil
	}
}

func TestPipelineWebsiteEndToEnd(t *testing.T) {
	srv := serveSite(t, "<html><body><h1>Hello</h1><p>World content here.</p></body></html>")

	db := newFakeDB()
	act := &fakeActivity{}
	p := newTestPipeline(db, act, &fakeEmbedder{}, &scriptedParser{})

	job, validation, err := p.Submit(context.Background(), Request{
		DocumentURL: srv.URL,
		SourceKind:  models.SourceWebsiteURL,
		ClientID:    "client-1",
		AgentName:   "support-bot",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != models.JobPending {
		t.Errorf("submitted job status = %s, want pending", job.Status)
	}
	if job.Method != models.MethodDirectFetch {
		t.Errorf("method = %s, want direct-fetch", job.Method)
	}
	if len(validation.Warnings) != 1 {
		// httptest is plain http, so exactly the HTTPS warning.
		t.Errorf("warnings = %v", validation.Warnings)
	}

	if err := drain(t, p); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored, _ := db.GetJob(context.Background(), job.ID)
	if stored.Status != models.JobCompleted {
		t.Fatalf("final status = %s (%s), want completed", stored.Status, stored.Error)
	}
	if len(db.content) != 1 {
		t.Fatalf("content records = %d, want 1", len(db.content))
	}
	if db.content[0].Metadata.ProcessingMethod != "direct-fetch" {
		t.Errorf("content metadata method = %q", db.content[0].Metadata.ProcessingMethod)
	}

	want := []models.ActivityType{
		models.ActivityDocumentLinkAdded,
		models.ActivityProcessingStarted,
		models.ActivityProcessingCompleted,
	}
	got := act.types()
	if len(got) != len(want) {
		t.Fatalf("activities = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("activity[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPipelineValidationRejectsWithoutJob(t *testing.T) {
	db := newFakeDB()
	p := newTestPipeline(db, &fakeActivity{}, &fakeEmbedder{}, &scriptedParser{})

	_, _, err := p.Submit(context.Background(), Request{
		DocumentURL: "https://example.com/page.html",
		SourceKind:  models.SourcePDF,
		ClientID:    "client-1",
		AgentName:   "support-bot",
	})
	if err == nil {
		t.Fatalf("expected validation rejection")
	}
	if len(db.jobs) != 0 {
		t.Errorf("rejected submission must not create a job")
	}
}

func TestPipelineRemoteParseRetriesThenFails(t *testing.T) {
	srv := serveSite(t, "<html><body>page</body></html>")

	db := newFakeDB()
	act := &fakeActivity{}
	wantErr := errors.New("parser down")
	p := newTestPipeline(db, act, &fakeEmbedder{}, &scriptedParser{failures: 100, err: wantErr})

	// A .pdf path on a plain website forces the remote-parse backend.
	job, _, err := p.Submit(context.Background(), Request{
		DocumentURL: srv.URL + "/doc.pdf",
		SourceKind:  models.SourceWebsiteURL,
		ClientID:    "client-1",
		AgentName:   "support-bot",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Method != models.MethodRemoteParse {
		t.Fatalf("method = %s, want remote-parse", job.Method)
	}

	if err := drain(t, p); !errors.Is(err, wantErr) {
		t.Fatalf("Process err = %v, want the parser's last error", err)
	}

	stored, _ := db.GetJob(context.Background(), job.ID)
	if stored.Status != models.JobFailed {
		t.Errorf("final status = %s, want failed", stored.Status)
	}
	if stored.Error != wantErr.Error() {
		t.Errorf("job error = %q, want %q", stored.Error, wantErr.Error())
	}
	if stored.RetryCount != 3 {
		t.Errorf("retry count = %d, want 3", stored.RetryCount)
	}

	got := act.types()
	if got[len(got)-1] != models.ActivityProcessingFailed {
		t.Errorf("last activity = %s, want processing failed", got[len(got)-1])
	}
}

func TestPipelineSyncWarningStillCompletes(t *testing.T) {
	srv := serveSite(t, "<html><body><p>some content</p></body></html>")

	db := newFakeDB()
	act := &fakeActivity{}
	p := newTestPipeline(db, act, &fakeEmbedder{fail: true}, &scriptedParser{})

	job, _, err := p.Submit(context.Background(), Request{
		DocumentURL: srv.URL,
		SourceKind:  models.SourceWebsiteURL,
		ClientID:    "client-1",
		AgentName:   "support-bot",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := drain(t, p); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored, _ := db.GetJob(context.Background(), job.ID)
	if stored.Status != models.JobCompleted {
		t.Errorf("final status = %s, want completed despite the sync failure", stored.Status)
	}

	foundSyncFailure := false
	for _, typ := range act.types() {
		if typ == models.ActivityAssistantSyncFailed {
			foundSyncFailure = true
		}
	}
	if !foundSyncFailure {
		t.Errorf("missing assistant_sync_failed activity in %v", act.types())
	}
}

func TestPipelineUsesCallerDocumentID(t *testing.T) {
	srv := serveSite(t, "<html><body><p>content</p></body></html>")

	db := newFakeDB()
	p := newTestPipeline(db, &fakeActivity{}, &fakeEmbedder{}, &scriptedParser{})

	job, _, err := p.Submit(context.Background(), Request{
		DocumentURL: srv.URL,
		SourceKind:  models.SourceWebsiteURL,
		ClientID:    "client-1",
		AgentName:   "support-bot",
		DocumentID:  "caller-chosen-id",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.ID != "caller-chosen-id" {
		t.Errorf("job id = %q, want the caller's correlation id", job.ID)
	}
}

func TestPipelineRequiredFields(t *testing.T) {
	p := newTestPipeline(newFakeDB(), &fakeActivity{}, &fakeEmbedder{}, &scriptedParser{})

	for _, req := range []Request{
		{SourceKind: models.SourceWebsiteURL, ClientID: "c", AgentName: "a"},
		{DocumentURL: "https://example.com", SourceKind: models.SourceWebsiteURL, AgentName: "a"},
		{DocumentURL: "https://example.com", SourceKind: models.SourceWebsiteURL, ClientID: "c"},
	} {
		if _, _, err := p.Submit(context.Background(), req); err == nil {
			t.Errorf("Submit(%+v) must fail on missing field", req)
		}
	}
}
