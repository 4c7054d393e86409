package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CrawlerClient talks to a Firecrawl-compatible crawl engine. A crawl
// returns a job handle; content arrives only after polling reaches a
// terminal status.
type CrawlerClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCrawlerClient(baseURL, apiKey string, timeout time.Duration) *CrawlerClient {
	return &CrawlerClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type crawlStartRequest struct {
	URL      string `json:"url"`
	Limit    int    `json:"limit"`
	MaxDepth int    `json:"maxDepth"`
}

type crawlStartResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
}

// StartCrawl kicks off a crawl and returns the engine's job handle.
func (c *CrawlerClient) StartCrawl(ctx context.Context, url string) (string, error) {
	payload, err := json.Marshal(crawlStartRequest{URL: url, Limit: 50, MaxDepth: 3})
	if err != nil {
		return "", fmt.Errorf("encode crawl request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawl", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build crawl request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("crawl request: %w", err)
	}
	defer resp.Body.Close()

	var start crawlStartResponse
	if err := json.NewDecoder(resp.Body).Decode(&start); err != nil {
		return "", fmt.Errorf("decode crawl response: %w", err)
	}
	if !start.Success || start.ID == "" {
		if start.Error != "" {
			return "", fmt.Errorf("failed to start crawl: %s", start.Error)
		}
		return "", fmt.Errorf("failed to start crawl: status %d", resp.StatusCode)
	}
	return start.ID, nil
}

// CheckCrawl fetches the current status of a crawl job.
func (c *CrawlerClient) CheckCrawl(ctx context.Context, jobID string) (*CrawlStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/crawl/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crawl status request: %w", err)
	}
	defer resp.Body.Close()

	var status CrawlStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode crawl status: %w", err)
	}
	return &status, nil
}

// CrawlExtractor runs the start-then-poll variant of website
// extraction: a fixed poll interval, a bounded number of attempts,
// "scraping" as the continuation status and everything else terminal.
type CrawlExtractor struct {
	crawler      CrawlerAPI
	pollInterval time.Duration
	maxPolls     int
	maxContent   int
	sleep        func(time.Duration) // test seam
}

func NewCrawlExtractor(crawler CrawlerAPI, pollInterval time.Duration, maxPolls, maxContent int) *CrawlExtractor {
	return &CrawlExtractor{
		crawler:      crawler,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		maxContent:   maxContent,
		sleep:        time.Sleep,
	}
}

// Extract starts a crawl and polls it to a terminal state. Exhausting
// the poll budget without leaving "scraping" is itself a failure.
func (e *CrawlExtractor) Extract(ctx context.Context, url string) (*Extraction, error) {
	started := time.Now()

	jobID, err := e.crawler.StartCrawl(ctx, url)
	if err != nil {
		return nil, err
	}

	var status *CrawlStatus
	for attempt := 0; attempt < e.maxPolls; attempt++ {
		e.sleep(e.pollInterval)

		status, err = e.crawler.CheckCrawl(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("check crawl %s: %w", jobID, err)
		}
		if status.Status != "scraping" {
			break
		}
	}

	if status == nil || status.Status == "scraping" {
		return nil, fmt.Errorf("crawl %s did not complete in time after %d checks", jobID, e.maxPolls)
	}
	if status.Status != "completed" {
		if status.Error != "" {
			return nil, fmt.Errorf("crawl %s failed: %s", jobID, status.Error)
		}
		return nil, fmt.Errorf("crawl %s failed with status %q", jobID, status.Status)
	}

	content := strings.TrimSpace(status.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: crawl %s", ErrNoContent, jobID)
	}

	capped, truncated := CapContent(content, e.maxContent)
	meta := contentStats(capped)
	meta.ProcessingMethod = "direct-fetch"
	meta.DurationMS = time.Since(started).Milliseconds()
	meta.Truncated = truncated

	return &Extraction{Content: capped, Metadata: meta}, nil
}

var _ CrawlerAPI = (*CrawlerClient)(nil)
