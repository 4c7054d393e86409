package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/welcomechat/ingest/internal/models"
)

func TestExtractDriveID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"file link", "https://drive.google.com/file/d/1aBcD_efG-hIj/view?usp=sharing", "1aBcD_efG-hIj"},
		{"folder link", "https://drive.google.com/drive/folders/2xYz_folder-id", "2xYz_folder-id"},
		{"docs link", "https://docs.google.com/document/d/abcdefghijklmnopqrstuvwxy/edit", "abcdefghijklmnopqrstuvwxy"},
		{"docs link too short", "https://docs.google.com/document/d/short/edit", ""},
		{"open with id param", "https://drive.google.com/open?id=3pQr_id", "3pQr_id"},
		{"not a drive url", "https://example.com/file/d/123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDriveID(tt.url); got != tt.want {
				t.Errorf("ExtractDriveID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestValidateRejectsMalformedURL(t *testing.T) {
	v := NewValidator(time.Second)
	if _, err := v.Validate(context.Background(), "not a url", models.SourceWebsiteURL); err == nil {
		t.Errorf("expected rejection for malformed URL")
	}
	if _, err := v.Validate(context.Background(), "/relative/path", models.SourceWebsiteURL); err == nil {
		t.Errorf("expected rejection for URL without scheme")
	}
}

func TestValidateRejectsKindSuffixMismatch(t *testing.T) {
	v := NewValidator(time.Second)

	_, err := v.Validate(context.Background(), "https://example.com/page.html", models.SourcePDF)
	if err == nil || !strings.Contains(err.Error(), ".pdf") {
		t.Errorf("err = %v, want a rejection naming the expected suffix", err)
	}

	_, err = v.Validate(context.Background(), "https://example.com/data.csv", models.SourceExcel)
	if err == nil {
		t.Errorf("expected rejection for excel kind without .xlsx/.xls suffix")
	}
}

func TestValidateRejectsBadDriveURL(t *testing.T) {
	v := NewValidator(time.Second)
	_, err := v.Validate(context.Background(), "https://drive.google.com/weird/path", models.SourceGoogleDrive)
	if err == nil || !strings.Contains(err.Error(), "invalid Google Drive URL format") {
		t.Errorf("err = %v, want drive format rejection", err)
	}
}

func TestValidateWebsiteWarnings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><meta name="robots" content="noindex"></head><body>hi</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	v := NewValidator(5 * time.Second)
	res, err := v.Validate(context.Background(), srv.URL+"/page", models.SourceWebsiteURL)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !res.Reachable || !res.Accessible {
		t.Errorf("page should be reachable and accessible: %+v", res)
	}
	if res.RobotsAllowed {
		t.Errorf("robots.txt disallows everything; RobotsAllowed should be false")
	}
	if res.Secure {
		t.Errorf("httptest server is plain http; Secure should be false")
	}

	wantWarnings := []string{"HTTPS", "blocks web scraping", "noindex"}
	for _, frag := range wantWarnings {
		found := false
		for _, warn := range res.Warnings {
			if strings.Contains(warn, frag) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing warning containing %q in %v", frag, res.Warnings)
		}
	}
}

func TestValidateWebsiteCleanSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>welcome</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	v := NewValidator(5 * time.Second)
	res, err := v.Validate(context.Background(), srv.URL, models.SourceWebsiteURL)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.RobotsAllowed {
		t.Errorf("allow-all robots.txt must not block")
	}
	for _, warn := range res.Warnings {
		if strings.Contains(warn, "scraping") || strings.Contains(warn, "content type") {
			t.Errorf("unexpected warning: %q", warn)
		}
	}
}

func TestValidateWebsiteInaccessible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	v := NewValidator(5 * time.Second)
	res, err := v.Validate(context.Background(), srv.URL+"/missing", models.SourceWebsiteURL)
	if err != nil {
		t.Fatalf("a 404 is a warning, not a rejection: %v", err)
	}
	if res.Accessible {
		t.Errorf("404 page must not be accessible")
	}
	found := false
	for _, warn := range res.Warnings {
		if strings.Contains(warn, "not accessible") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing accessibility warning in %v", res.Warnings)
	}
}
