package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type scriptedCrawler struct {
	statuses []CrawlStatus
	checks   int
	startErr error
}

func (c *scriptedCrawler) StartCrawl(ctx context.Context, url string) (string, error) {
	if c.startErr != nil {
		return "", c.startErr
	}
	return "crawl-1", nil
}

func (c *scriptedCrawler) CheckCrawl(ctx context.Context, jobID string) (*CrawlStatus, error) {
	var st CrawlStatus
	if c.checks < len(c.statuses) {
		st = c.statuses[c.checks]
	} else {
		st = c.statuses[len(c.statuses)-1]
	}
	c.checks++
	return &st, nil
}

func newTestCrawl(c CrawlerAPI) *CrawlExtractor {
	e := NewCrawlExtractor(c, 3*time.Second, 10, 100000)
	e.sleep = func(time.Duration) {}
	return e
}

func TestCrawlExtractorCompletesAfterPolling(t *testing.T) {
	c := &scriptedCrawler{statuses: []CrawlStatus{
		{Status: "scraping"},
		{Status: "scraping"},
		{Status: "completed", Content: "crawled site content", Total: 12},
	}}
	e := newTestCrawl(c)

	ext, err := e.Extract(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if c.checks != 3 {
		t.Errorf("status checked %d times, want 3", c.checks)
	}
	if ext.Content != "crawled site content" {
		t.Errorf("content = %q", ext.Content)
	}
	if ext.Metadata.ProcessingMethod != "direct-fetch" {
		t.Errorf("processing method = %q", ext.Metadata.ProcessingMethod)
	}
}

func TestCrawlExtractorGivesUpAfterPollBudget(t *testing.T) {
	c := &scriptedCrawler{statuses: []CrawlStatus{{Status: "scraping"}}}
	e := newTestCrawl(c)

	_, err := e.Extract(context.Background(), "https://example.com")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !strings.Contains(err.Error(), "did not complete in time after 10 checks") {
		t.Errorf("err = %v", err)
	}
	if c.checks != 10 {
		t.Errorf("status checked %d times, want 10", c.checks)
	}
}

func TestCrawlExtractorSurfacesFailureStatus(t *testing.T) {
	c := &scriptedCrawler{statuses: []CrawlStatus{
		{Status: "failed", Error: "site blocked the crawler"},
	}}
	e := newTestCrawl(c)

	_, err := e.Extract(context.Background(), "https://example.com")
	if err == nil || !strings.Contains(err.Error(), "site blocked the crawler") {
		t.Errorf("err = %v, want the engine's message", err)
	}
}

func TestCrawlExtractorEmptyContent(t *testing.T) {
	c := &scriptedCrawler{statuses: []CrawlStatus{{Status: "completed", Content: "   "}}}
	e := newTestCrawl(c)

	_, err := e.Extract(context.Background(), "https://example.com")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestCrawlExtractorStartFailure(t *testing.T) {
	wantErr := errors.New("invalid api key")
	c := &scriptedCrawler{startErr: wantErr}
	e := newTestCrawl(c)

	_, err := e.Extract(context.Background(), "https://example.com")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want start error", err)
	}
	if c.checks != 0 {
		t.Errorf("no status checks expected after a failed start, got %d", c.checks)
	}
}
