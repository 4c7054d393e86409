package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWebsiteExtractorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "WelcomeChatBot") {
			t.Errorf("request sent without the bot user agent: %q", got)
		}
		w.Write([]byte(`<html><head><title>Acme FAQ</title></head><body><h1>FAQ</h1><p>We ship worldwide.</p></body></html>`))
	}))
	defer srv.Close()

	e := NewWebsiteExtractor(5*time.Second, 100000)
	ext, err := e.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if want := "# FAQ\n\nWe ship worldwide."; ext.Content != want {
		t.Errorf("content = %q, want %q", ext.Content, want)
	}
	if ext.Metadata.Title != "Acme FAQ" {
		t.Errorf("title = %q, want %q", ext.Metadata.Title, "Acme FAQ")
	}
	if ext.Metadata.ProcessingMethod != "direct-fetch" {
		t.Errorf("processing method = %q", ext.Metadata.ProcessingMethod)
	}
	if ext.Metadata.WordCount != 5 {
		t.Errorf("word count = %d, want 5", ext.Metadata.WordCount)
	}
	if ext.Metadata.Truncated {
		t.Errorf("short page must not be truncated")
	}
}

func TestWebsiteExtractorNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewWebsiteExtractor(5*time.Second, 100000)
	_, err := e.Extract(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error must carry the status code, got %v", err)
	}
}

func TestWebsiteExtractorEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><script>nothing()</script></body></html>"))
	}))
	defer srv.Close()

	e := NewWebsiteExtractor(5*time.Second, 100000)
	_, err := e.Extract(context.Background(), srv.URL)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestWebsiteExtractorCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	e := NewWebsiteExtractor(5*time.Second, 100000)
	_, err := e.Extract(ctx, srv.URL)
	if !errors.Is(err, ErrFetchCanceled) {
		t.Errorf("expected ErrFetchCanceled, got %v", err)
	}
}

func TestWebsiteExtractorTruncates(t *testing.T) {
	big := strings.Repeat("word ", 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<body><p>" + big + "</p></body>"))
	}))
	defer srv.Close()

	e := NewWebsiteExtractor(5*time.Second, 100)
	ext, err := e.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !ext.Metadata.Truncated {
		t.Fatalf("expected truncation")
	}
	if !strings.HasSuffix(ext.Content, TruncationMarker) {
		t.Errorf("capped content must end with the truncation marker")
	}
}
